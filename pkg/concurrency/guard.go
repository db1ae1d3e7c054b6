// Package concurrency implements the optimistic-lock decision for versioned
// entities. It holds no state so the same check serves drafts today and any
// future versioned entity.
package concurrency

import (
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/apperrors"
)

// CheckVersion decides whether a write with submittedVersion may proceed
// against a record at storedVersion. Any mismatch, higher or lower, is a
// conflict carrying the stored version so the caller can reconcile. This
// subsystem never auto-merges; the loser must re-fetch before retrying.
func CheckVersion(storedVersion, submittedVersion int) error {
	if storedVersion == submittedVersion {
		return nil
	}
	return &apperrors.VersionConflictError{ServerVersion: storedVersion}
}
