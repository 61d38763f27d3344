package blob

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Environment variables:
//
//	COLLABCORE_BLOB_DRIVER=fs|s3|memory (default fs)
//	COLLABCORE_BLOB_FS_ROOT=<dir> (default ./blobdata, fs driver only)
//
// The s3 driver reads the COLLABCORE_BLOB_S3_* variables, see OpenS3FromEnv.

const defaultFSRoot = "blobdata"

// Open selects and constructs a blob store from process environment.
func Open(ctx context.Context) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(os.Getenv("COLLABCORE_BLOB_DRIVER")))
	switch Driver(driver) {
	case DriverS3:
		return OpenS3FromEnv(ctx)
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverFilesystem, Driver(""):
		root := os.Getenv("COLLABCORE_BLOB_FS_ROOT")
		if root == "" {
			root = defaultFSRoot
		}
		return NewFilesystemStore(root)
	default:
		return nil, fmt.Errorf("unsupported blob driver %q", driver)
	}
}
