package uploader

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fhuszti/media-pipeline/internal/mock"
	"github.com/fhuszti/media-pipeline/internal/model"
	"github.com/fhuszti/media-pipeline/internal/optimiser"
	"github.com/fhuszti/media-pipeline/internal/port"
	"github.com/fhuszti/media-pipeline/internal/usecase/media"
	"github.com/fhuszti/media-pipeline/internal/uuid"
	"github.com/go-chi/chi/v5"
)

// fakeAPI mimics the media API and a presigned object store. Transcode
// requests run through the real enqueue use case.
type fakeAPI struct {
	t   *testing.T
	srv *httptest.Server

	mu      sync.Mutex
	calls   map[string]int
	medias  map[string]*model.Media
	objects map[string][]byte
	// putFailures makes the next n PUTs of a key answer 500.
	putFailures     map[string]int
	variantStatus   int
	uploadedStatus  int
	publicURLStatus int
	transcodeCtx    map[string]string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	f := &fakeAPI{
		t:            t,
		calls:        map[string]int{},
		medias:       map[string]*model.Media{},
		objects:      map[string][]byte{},
		putFailures:  map[string]int{},
		transcodeCtx: map[string]string{},
	}

	r := chi.NewRouter()
	r.Post("/medias/upload_link", f.count("upload_link", f.uploadLink))
	r.Post("/medias/public_urls", f.count("public_urls", f.publicURLs))
	r.Post("/medias/{id}/variant_link", f.count("variant_link", f.variantLink))
	r.Post("/medias/{id}/uploaded", f.count("uploaded", f.uploaded))
	r.Post("/medias/{id}/transcode", f.count("transcode", f.transcode))
	r.Put("/store/*", f.count("put", f.put))

	f.srv = httptest.NewServer(r)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) count(name string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.calls[name]++
		f.mu.Unlock()
		h(w, r)
	}
}

func (f *fakeAPI) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeAPI) Object(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[key]
	return b, ok
}

func (f *fakeAPI) ObjectKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.objects))
	for k := range f.objects {
		out = append(out, k)
	}
	return out
}

func (f *fakeAPI) Media(id string) (model.Media, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.medias[id]
	if !ok {
		return model.Media{}, false
	}
	return *m, true
}

func (f *fakeAPI) TranscodeContext(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transcodeCtx[id]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeAPI) uploadLink(w http.ResponseWriter, r *http.Request) {
	var req UploadLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request"})
		return
	}
	key := req.Path
	if req.ParentScope != "" {
		key = req.ParentScope + "/" + req.Path
	}
	m := &model.Media{
		ID:        uuid.NewUUID(),
		Type:      model.MediaTypeFromMime(req.MimeType),
		Status:    model.MediaStatusPending,
		Bucket:    req.Bucket,
		ObjectKey: key,
		MimeType:  req.MimeType,
		SizeBytes: req.Size,
	}
	f.mu.Lock()
	f.medias[m.ID.String()] = m
	f.mu.Unlock()

	writeJSON(w, http.StatusCreated, port.IssueUploadLinkOutput{
		URL:       f.srv.URL + "/store/" + key,
		ExpiresAt: time.Now().Add(15 * time.Minute),
		Media:     m,
	})
}

func (f *fakeAPI) media(r *http.Request) (*model.Media, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.medias[chi.URLParam(r, "id")]
	return m, ok
}

func (f *fakeAPI) variantLink(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	status := f.variantStatus
	f.mu.Unlock()
	if status != 0 {
		writeJSON(w, status, map[string]string{"error": "variant refused"})
		return
	}
	m, ok := f.media(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Media not found"})
		return
	}
	var req struct {
		Suffix string `json:"suffix"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	key := optimiser.VariantName(m.ObjectKey, req.Suffix)
	writeJSON(w, http.StatusCreated, port.IssueVariantLinkOutput{URL: f.srv.URL + "/store/" + key, Bucket: "renditions", ObjectKey: key})
}

func (f *fakeAPI) uploaded(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	status := f.uploadedStatus
	f.mu.Unlock()
	if status != 0 {
		writeJSON(w, status, map[string]string{"error": "Could not mark media as uploaded"})
		return
	}
	m, ok := f.media(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Media not found"})
		return
	}
	var req struct {
		Variants []string `json:"variants"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request"})
			return
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	m.Status = model.MediaStatusUploaded
	if len(req.Variants) > 0 {
		thumbs := map[string]string{}
		for _, suffix := range req.Variants {
			thumbs[suffix] = optimiser.VariantName(m.ObjectKey, suffix)
		}
		m.Metadata = m.Metadata.MergeThumbnails(thumbs)
	}
	writeJSON(w, http.StatusOK, m)
}

func (f *fakeAPI) transcode(w http.ResponseWriter, r *http.Request) {
	m, ok := f.media(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Media not found"})
		return
	}
	var req struct {
		EventContextID string `json:"event_context_id"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	record := *m
	f.mu.Unlock()
	repo := &mock.MockMediaRepo{MediaRecord: &record}
	err := media.NewTranscodeEnqueuer(repo, &mock.MockDispatcher{}).
		EnqueueTranscode(r.Context(), port.EnqueueTranscodeInput{ID: record.ID, EventContextID: req.EventContextID})
	if err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}

	f.mu.Lock()
	m.Status = repo.MediaRecord.Status
	f.transcodeCtx[chi.URLParam(r, "id")] = req.EventContextID
	f.mu.Unlock()
	w.WriteHeader(http.StatusAccepted)
}

func (f *fakeAPI) publicURLs(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	status := f.publicURLStatus
	f.mu.Unlock()
	if status != 0 {
		writeJSON(w, status, map[string]string{"error": "Could not resolve public URLs"})
		return
	}
	var req struct {
		IDs []uuid.UUID `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request"})
		return
	}
	out := map[string]port.PublicURL{}
	f.mu.Lock()
	for _, id := range req.IDs {
		if m, ok := f.medias[id.String()]; ok {
			out[id.String()] = port.PublicURL{URL: f.srv.URL + "/store/" + m.ObjectKey, ExpiresAt: time.Now().Add(time.Hour)}
		}
	}
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (f *fakeAPI) put(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/store/")
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putFailures[key] > 0 {
		f.putFailures[key]--
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	f.objects[key] = body
	w.WriteHeader(http.StatusOK)
}
