package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/feichai0017/exam-analyzer/internal/models"
)

// Fingerprint derives the cache key for a job: the sorted per-file content
// hashes plus a hash of the exam context. Sorting makes the key invariant
// under permutation of the file list, so resubmitting the same files in a
// different order hits the same cache entry.
func Fingerprint(files []models.FileAsset, examCtx models.ExamContext) string {
	hashes := make([]string, 0, len(files))
	for _, f := range files {
		h := sha256.Sum256(f.Content)
		hashes = append(hashes, hex.EncodeToString(h[:]))
	}
	sort.Strings(hashes)

	ctxHash := sha256.Sum256([]byte(examCtx.Subject + examCtx.ExamName))

	digest := sha256.New()
	for _, h := range hashes {
		digest.Write([]byte(h))
	}
	digest.Write(ctxHash[:])
	return hex.EncodeToString(digest.Sum(nil))
}
