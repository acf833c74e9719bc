package api

import (
	"net/http"

	"github.com/fhuszti/media-pipeline/internal/model"
)

// GetBucketsHandler lists the bucket policies so clients can check sizes
// before transferring anything.
func GetBucketsHandler(buckets model.BucketPolicies) http.HandlerFunc {
	list := make([]model.BucketPolicy, 0, len(buckets))
	for _, name := range buckets.Names() {
		list = append(list, buckets[name])
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=300")
		RespondJSON(w, http.StatusOK, list)
	}
}
