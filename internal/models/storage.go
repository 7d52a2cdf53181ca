package models

import "fmt"

// StorageRef locates a binary object in durable storage.
type StorageRef struct {
	Bucket string
	Key    string
}

// URI returns the s3:// form of the reference.
func (r StorageRef) URI() string {
	return fmt.Sprintf("s3://%s/%s", r.Bucket, r.Key)
}

// IsZero reports whether the reference is unset.
func (r StorageRef) IsZero() bool {
	return r.Bucket == "" && r.Key == ""
}
