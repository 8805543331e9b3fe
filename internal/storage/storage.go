package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 24 * time.Hour

// ResponseArchive keeps raw model output that failed extraction or
// validation, so it can be inspected later without logging it in full.
type ResponseArchive interface {
	// ArchiveRejected stores raw and returns the object key it was written under.
	ArchiveRejected(ctx context.Context, userID primitive.ObjectID, operation string, raw string) (string, error)

	// GeneratePresignedDownloadURL creates a temporary GET URL for an archived object.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	// Enabled reports whether anything is actually stored.
	Enabled() bool
}

// RejectedObjectKey is rejected/<userId>/<operation>-<id>.txt.
func RejectedObjectKey(userID primitive.ObjectID, operation string, id uuid.UUID) string {
	return fmt.Sprintf("rejected/%s/%s-%s.txt", userID.Hex(), operation, id.String())
}

// noopArchive is used when S3 is not configured.
type noopArchive struct{}

// NewNoopArchive returns an archive that stores nothing.
func NewNoopArchive() ResponseArchive { return noopArchive{} }

func (noopArchive) ArchiveRejected(context.Context, primitive.ObjectID, string, string) (string, error) {
	return "", nil
}

func (noopArchive) GeneratePresignedDownloadURL(context.Context, string, time.Duration) (string, error) {
	return "", nil
}

func (noopArchive) Enabled() bool { return false }
