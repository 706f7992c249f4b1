package common_test

import (
	"testing"

	"github.com/dargueta/fatimg"
	c "github.com/dargueta/fatimg/drivers/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClusterSet__Add(t *testing.T) {
	set := c.NewClusterSet(20)
	assert.Equal(t, 0, set.Len())

	added, err := set.Add(7)
	require.NoError(t, err)
	assert.True(t, added, "first add should report a new member")
	assert.Equal(t, 1, set.Len())

	added, err = set.Add(7)
	require.NoError(t, err)
	assert.False(t, added, "second add should report an existing member")

	_, err = set.Add(19)
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())
}

func TestClusterSet__OutOfRange(t *testing.T) {
	set := c.NewClusterSet(8)

	_, err := set.Add(8)
	assert.ErrorIs(t, err, fatimg.ErrInvalidArgument)
	assert.Equal(t, 0, set.Len())
}
