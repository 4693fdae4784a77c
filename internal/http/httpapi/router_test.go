package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	stdimage "image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"outfitgen/internal/domain"
	"outfitgen/internal/http/handlers"
	"outfitgen/internal/infra"
	"outfitgen/internal/outfit"
	"outfitgen/internal/providers/huggingface"
	"outfitgen/internal/providers/image"
	"outfitgen/internal/retry"
	"outfitgen/internal/storage"
)

type scriptedText struct {
	out string
	err error
}

func (s scriptedText) Generate(ctx context.Context, model, prompt string) (string, error) {
	return s.out, s.err
}

type harness struct {
	server   *httptest.Server
	dir      string
	hfCalls  *atomic.Int32
	imageOut []byte
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{R: 200, G: 20, B: 60, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

// newHarness wires the full stack. failUntil is the number of inference calls
// answered with 503 before the fake model starts returning images; a negative
// value fails every call.
func newHarness(t *testing.T, txt scriptedText, failUntil int32) *harness {
	t.Helper()
	h := &harness{dir: t.TempDir(), hfCalls: &atomic.Int32{}, imageOut: tinyPNG(t)}

	hf := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := h.hfCalls.Add(1)
		if failUntil < 0 || n <= failUntil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"Model is currently loading","estimated_time":20}`))
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(h.imageOut)
	}))
	t.Cleanup(hf.Close)

	client, err := huggingface.NewClient(huggingface.Options{Token: "hf_test", BaseURL: hf.URL, HTTPClient: hf.Client()})
	if err != nil {
		t.Fatalf("huggingface.NewClient: %v", err)
	}
	retrier := retry.New(retry.Options{Policy: retry.Policy{Attempts: 3, Delay: 0}})
	images := image.NewRetryingGenerator(client, retrier, image.RetryingOptions{})

	store, err := storage.NewFileStore(h.dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	svc, err := outfit.NewService(outfit.Options{
		Text:      txt,
		TextModel: "tunedModels/test",
		Images:    images,
		Store:     store,
		Naming:    storage.NamingFixed{},
		BaseURL:   "http://outfits.test",
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	h.server = httptest.NewServer(NewRouter(handlers.NewApp(svc, store, infra.NopLogger())))
	t.Cleanup(h.server.Close)
	return h
}

const styleBody = `{"style_idea":"streetwear","gender":"non-binary","ethnicity":"Korean","age":"29","skin_color":"light","season":"autumn","accessories":"bucket hat","occasion":"gallery opening"}`

func (h *harness) post(t *testing.T, body string) (*http.Response, map[string]string) {
	t.Helper()
	resp, err := http.Post(h.server.URL+"/generate-outfit/", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	var out map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return resp, out
}

func (h *harness) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(h.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	return resp, buf.Bytes()
}

func TestHomeBanner(t *testing.T) {
	h := newHarness(t, scriptedText{out: "unused"}, 0)
	resp, body := h.get(t, "/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "Outfit generation server is running!") {
		t.Fatalf("body = %s", body)
	}
}

func TestGenerateThenServeImage(t *testing.T) {
	h := newHarness(t, scriptedText{out: "Oversized charcoal hoodie, pleated wide-leg trousers and chunky white sneakers."}, 0)

	resp, _ := h.get(t, "/generated_images/outfit.png")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("before generation status = %d", resp.StatusCode)
	}

	resp, out := h.post(t, styleBody)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate status = %d body = %v", resp.StatusCode, out)
	}
	if out["outfit_description"] == "" {
		t.Fatalf("missing description: %v", out)
	}
	if out["image_url"] != "http://outfits.test/generated_images/outfit.png" {
		t.Fatalf("image_url = %q", out["image_url"])
	}

	resp, body := h.get(t, "/generated_images/outfit.png")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("after generation status = %d", resp.StatusCode)
	}
	if !bytes.Equal(body, h.imageOut) {
		t.Fatalf("served bytes differ from generated image")
	}
}

func TestGenerateRetriesTransientImageFailures(t *testing.T) {
	h := newHarness(t, scriptedText{out: "Camel trench coat over a cream knit, straight jeans, loafers."}, 2)
	resp, out := h.post(t, styleBody)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d body = %v", resp.StatusCode, out)
	}
	if got := h.hfCalls.Load(); got != 3 {
		t.Fatalf("inference calls = %d, want 3", got)
	}
}

func TestTextFailureSkipsImageGeneration(t *testing.T) {
	h := newHarness(t, scriptedText{err: errors.Join(domain.ErrUpstreamGeneration, errors.New("quota exceeded"))}, 0)
	resp, out := h.post(t, styleBody)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.HasPrefix(out["detail"], "Internal Server Error: ") {
		t.Fatalf("detail = %q", out["detail"])
	}
	if got := h.hfCalls.Load(); got != 0 {
		t.Fatalf("inference calls = %d, want 0", got)
	}
}

func TestExhaustedRetriesWriteNothing(t *testing.T) {
	h := newHarness(t, scriptedText{out: "Black turtleneck, grey wool trousers, Chelsea boots."}, -1)
	resp, out := h.post(t, styleBody)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(out["detail"], "all retries failed") {
		t.Fatalf("detail = %q", out["detail"])
	}
	if got := h.hfCalls.Load(); got != 3 {
		t.Fatalf("inference calls = %d, want 3", got)
	}
	if _, err := os.Stat(filepath.Join(h.dir, "outfit.png")); !os.IsNotExist(err) {
		t.Fatalf("image file written after failure: %v", err)
	}
}

func TestGenerateValidation(t *testing.T) {
	h := newHarness(t, scriptedText{out: "unused"}, 0)

	resp, out := h.post(t, `{"gender":"female"}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("missing fields status = %d", resp.StatusCode)
	}
	if !strings.Contains(out["detail"], "style_idea") {
		t.Fatalf("detail = %q", out["detail"])
	}

	resp, _ = h.post(t, `{not json`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("malformed status = %d", resp.StatusCode)
	}
	if got := h.hfCalls.Load(); got != 0 {
		t.Fatalf("inference calls = %d, want 0", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness(t, scriptedText{out: "unused"}, 0)
	req, _ := http.NewRequest(http.MethodOptions, h.server.URL+"/generate-outfit/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("allow origin = %q", got)
	}
	if resp.Header.Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatalf("credentials not allowed")
	}
}

func TestRequestIDEchoed(t *testing.T) {
	h := newHarness(t, scriptedText{out: "unused"}, 0)
	req, _ := http.NewRequest(http.MethodGet, h.server.URL+"/healthz", nil)
	req.Header.Set("X-Request-ID", "req-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "req-123" {
		t.Fatalf("request id = %q", got)
	}
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	h := newHarness(t, scriptedText{out: "unused"}, 0)
	resp, body := h.get(t, "/nope")
	if resp.StatusCode != http.StatusNotFound || !strings.Contains(string(body), `"detail"`) {
		t.Fatalf("status = %d body = %s", resp.StatusCode, body)
	}
}
