package common

import (
	"fmt"

	"github.com/boljen/go-bitmap"
	"github.com/dargueta/fatimg"
)

// ClusterSet is a fixed-size set of cluster numbers backed by a bitmap. The
// chain walker uses it to notice when a chain loops back on itself.
type ClusterSet struct {
	members       bitmap.Bitmap
	TotalClusters uint
}

// NewClusterSet creates an empty set that can hold clusters [0, totalClusters).
func NewClusterSet(totalClusters uint) ClusterSet {
	return ClusterSet{
		members:       bitmap.New(int(totalClusters)),
		TotalClusters: totalClusters,
	}
}

// Add puts `cluster` into the set. It returns false if the cluster was already
// a member.
func (set *ClusterSet) Add(cluster ClusterID) (bool, error) {
	if uint(cluster) >= set.TotalClusters {
		msg := fmt.Sprintf(
			"invalid cluster id: %d not in range [0, %d)",
			cluster,
			set.TotalClusters)
		return false, fatimg.ErrInvalidArgument.WithMessage(msg)
	}
	if set.members.Get(int(cluster)) {
		return false, nil
	}

	set.members.Set(int(cluster), true)
	return true, nil
}

// Len gives the number of clusters in the set.
func (set *ClusterSet) Len() int {
	count := 0
	for i := 0; i < int(set.TotalClusters); i++ {
		if set.members.Get(i) {
			count++
		}
	}
	return count
}
