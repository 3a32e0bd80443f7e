package models

import "time"

// BlobInfo is the live metadata of one object in the blob store.
type BlobInfo struct {
	Name         string    `json:"blobName"`
	ContentType  string    `json:"contentType"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
	URI          string    `json:"uri"`
}
