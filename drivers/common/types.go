// Package common contains the plumbing shared by the FAT decoder: positioned
// reads over an image, cluster addressing, and the set of clusters visited
// while walking a chain.
package common

// ClusterID is a cluster number as stored in a directory entry or a FAT link.
type ClusterID uint16

// FirstDataCluster is the cluster number of the first cluster in the data
// region. Clusters 0 and 1 are reserved.
const FirstDataCluster = ClusterID(2)

// Extent is a contiguous run of bytes in an image.
type Extent struct {
	Offset int64
	Length int64
}

// End gives the offset of the first byte after the extent.
func (e Extent) End() int64 {
	return e.Offset + e.Length
}
