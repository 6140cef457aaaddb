package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/fwojciec/chronologue"
)

// Compile-time interface verification.
var _ chronologue.InferenceBackend = (*Backend)(nil)

// Backend wraps an InferenceBackend with file-based caching. Only
// successful responses are cached.
type Backend struct {
	inner     chronologue.InferenceBackend
	cacheDir  string
	namespace string
}

// NewBackend creates a new caching backend. The namespace (for example
// "gemini/gemini-3-flash-preview") is mixed into every cache key so
// answers from different models never collide.
func NewBackend(inner chronologue.InferenceBackend, cacheDir, namespace string) *Backend {
	return &Backend{
		inner:     inner,
		cacheDir:  cacheDir,
		namespace: namespace,
	}
}

// Infer returns a cached response or delegates to the inner backend.
func (b *Backend) Infer(ctx context.Context, req chronologue.InferenceRequest) (*chronologue.InferenceResponse, error) {
	hash := b.hashRequest(req)

	if cached, err := b.loadFromCache(hash); err == nil {
		return cached, nil
	}

	resp, err := b.inner.Infer(ctx, req)
	if err != nil {
		return nil, err
	}

	if resp != nil && resp.Status == chronologue.StatusSuccess {
		// Best-effort
		_ = b.saveToCache(hash, resp)
	}

	return resp, nil
}

// cacheKey is the hashed view of a request. Schema ordering is not part
// of the JSON form of a Schema, so it is hashed separately.
type cacheKey struct {
	Namespace string
	Request   chronologue.InferenceRequest
	Ordering  [][]string
}

func (b *Backend) hashRequest(req chronologue.InferenceRequest) string {
	key := cacheKey{Namespace: b.namespace, Request: req}
	if req.Schema != nil {
		key.Ordering = append(key.Ordering, req.Schema.Ordering)
	}
	data, _ := json.Marshal(key)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (b *Backend) cachePath(hash string) string {
	return filepath.Join(b.cacheDir, hash+".json")
}

func (b *Backend) loadFromCache(hash string) (*chronologue.InferenceResponse, error) {
	data, err := os.ReadFile(b.cachePath(hash))
	if err != nil {
		return nil, err
	}

	var resp chronologue.InferenceResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

func (b *Backend) saveToCache(hash string, resp *chronologue.InferenceResponse) error {
	if err := os.MkdirAll(b.cacheDir, 0755); err != nil {
		return err
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	return os.WriteFile(b.cachePath(hash), data, 0644)
}
