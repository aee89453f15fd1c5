package domain

// Image describes a media object stored in S3.
type Image struct {
	ID        string // uuid
	Bucket    string
	ObjectKey string
	SourceURL string // original remote URL the object was copied from
	Bytes     []byte
	MimeType  *string // Example: "image/jpeg"
}

func NewImage(id string, bucket string, objectKey string, sourceURL string, bytes []byte, mimeType *string) *Image {
	return &Image{
		ID:        id,
		Bucket:    bucket,
		ObjectKey: objectKey,
		SourceURL: sourceURL,
		Bytes:     bytes,
		MimeType:  mimeType,
	}
}
