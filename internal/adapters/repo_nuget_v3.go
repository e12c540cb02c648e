package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"

	"analyzer-plugin-generator/internal/ports"
	"analyzer-plugin-generator/internal/semver"
	"analyzer-plugin-generator/internal/shared"
	"analyzer-plugin-generator/internal/types"
)

const defaultNuGetRetries = 3
const defaultNuGetRetryDelay = 200 * time.Millisecond
const defaultNuGetTimeout = 60 * time.Second
const maxNuGetRetryDelay = 2 * time.Second
const nugetMetadataCacheSize = 512

const packageBaseAddressType = "PackageBaseAddress/3.0.0"

// NuGetV3Adapter reads packages from a NuGet v3 feed through its flat
// container ("PackageBaseAddress") resource.
type NuGetV3Adapter struct {
	IndexURL   string
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration

	client   *http.Client
	mu       sync.Mutex
	baseURL  *url.URL
	metadata *lru.Cache[string, types.PackageMetadata]
}

type nugetServiceIndex struct {
	Resources []nugetResource `json:"resources"`
}

type nugetResource struct {
	ID   string `json:"@id"`
	Type string `json:"@type"`
}

func NewNuGetV3Adapter(indexURL string, timeoutSec int, retries int, retryDelayMs int) *NuGetV3Adapter {
	timeout := normalizeNuGetTimeout(timeoutSec)
	cache, _ := lru.New[string, types.PackageMetadata](nugetMetadataCacheSize)
	return &NuGetV3Adapter{
		IndexURL:   strings.TrimSpace(indexURL),
		Timeout:    timeout,
		Retries:    normalizeNuGetRetries(retries),
		RetryDelay: normalizeNuGetRetryDelay(retryDelayMs),
		client:     &http.Client{Timeout: timeout},
		metadata:   cache,
	}
}

func (a *NuGetV3Adapter) GetMetadata(ctx context.Context, ref types.PackageRef) (types.PackageMetadata, error) {
	if cached, ok := a.metadata.Get(ref.Key()); ok {
		return cached, nil
	}
	base, err := a.packageBaseAddress(ctx)
	if err != nil {
		return types.PackageMetadata{}, err
	}
	id := shared.NormalizePackageID(ref.ID)
	version := semver.Canonical(ref.Version)
	nuspecURL := base.JoinPath(id, version, id+".nuspec").String()

	var body []byte
	err = a.get(ctx, ref, nuspecURL, func(r io.Reader) error {
		data, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		body = data
		return nil
	})
	if err != nil {
		return types.PackageMetadata{}, err
	}
	metadata, err := parseNuspec(body)
	if err != nil {
		return types.PackageMetadata{}, err
	}
	a.metadata.Add(ref.Key(), metadata)
	return metadata, nil
}

func (a *NuGetV3Adapter) DownloadPayload(ctx context.Context, ref types.PackageRef, destDir string) (string, error) {
	base, err := a.packageBaseAddress(ctx)
	if err != nil {
		return "", err
	}
	id := shared.NormalizePackageID(ref.ID)
	version := semver.Canonical(ref.Version)
	archiveURL := base.JoinPath(id, version, fmt.Sprintf("%s.%s.nupkg", id, version)).String()

	dest := filepath.Join(destDir, payloadFileName(ref))
	err = a.get(ctx, ref, archiveURL, func(r io.Reader) error {
		return writeFileAtomic(dest, func(w io.Writer) error {
			_, err := io.Copy(w, r)
			return err
		})
	})
	if err != nil {
		return "", err
	}
	log.Ctx(ctx).Debug().Str("package", ref.String()).Str("path", dest).Msg("package downloaded")
	return dest, nil
}

// packageBaseAddress resolves the flat container URL from the service
// index once per adapter. Relative resource ids resolve against the index.
func (a *NuGetV3Adapter) packageBaseAddress(ctx context.Context) (*url.URL, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.baseURL != nil {
		return a.baseURL, nil
	}
	if a.IndexURL == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("nuget service index url is empty")
	}
	indexURL, err := url.Parse(a.IndexURL)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid nuget service index url").
			WithCause(err)
	}
	var index nugetServiceIndex
	err = a.get(ctx, types.PackageRef{}, a.IndexURL, func(r io.Reader) error {
		return json.NewDecoder(r).Decode(&index)
	})
	if err != nil {
		return nil, err
	}
	for _, resource := range index.Resources {
		if !strings.HasPrefix(resource.Type, packageBaseAddressType) {
			continue
		}
		ref, err := url.Parse(strings.TrimSpace(resource.ID))
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("invalid package base address in service index").
				WithCause(err)
		}
		a.baseURL = indexURL.ResolveReference(ref)
		return a.baseURL, nil
	}
	return nil, errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("service index does not advertise " + packageBaseAddressType)
}

// get fetches target and hands the body to consume, retrying transport
// failures and 5xx/429 responses with exponential backoff.
func (a *NuGetV3Adapter) get(ctx context.Context, ref types.PackageRef, target string, consume func(io.Reader) error) error {
	var lastErr error
	for attempt := 0; attempt < a.Retries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		retry, err := a.getOnce(ctx, ref, target, consume)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry || attempt == a.Retries-1 {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(a.nugetRetryDelay(attempt)):
		}
	}
	if lastErr == nil {
		lastErr = errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("nuget request failed")
	}
	return lastErr
}

func (a *NuGetV3Adapter) getOnce(ctx context.Context, ref types.PackageRef, target string, consume func(io.Reader) error) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create nuget request").
			WithCause(err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return true, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("nuget request failed").
			WithCause(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound && ref.ID != "" {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("package %s not found", ref)).
			WithCause(shared.HTTPStatusError(resp.StatusCode, target))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		retry := resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests
		return retry, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("nuget request failed").
			WithCause(shared.HTTPStatusErrorWithBody(resp.StatusCode, target, strings.TrimSpace(string(body))))
	}
	if err := consume(resp.Body); err != nil {
		return true, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read nuget response").
			WithCause(err)
	}
	return false, nil
}

func (a *NuGetV3Adapter) nugetRetryDelay(attempt int) time.Duration {
	delay := a.RetryDelay * time.Duration(1<<attempt)
	if delay > maxNuGetRetryDelay {
		delay = maxNuGetRetryDelay
	}
	jitter := time.Duration(time.Now().UnixNano() % int64(delay/2+1))
	return delay + jitter
}

func normalizeNuGetTimeout(value int) time.Duration {
	timeout := time.Duration(value) * time.Second
	if timeout <= 0 {
		return defaultNuGetTimeout
	}
	return timeout
}

func normalizeNuGetRetries(value int) int {
	if value <= 0 {
		return defaultNuGetRetries
	}
	return value
}

func normalizeNuGetRetryDelay(value int) time.Duration {
	delay := time.Duration(value) * time.Millisecond
	if delay <= 0 {
		return defaultNuGetRetryDelay
	}
	return delay
}

// NewPackageRepository picks the feed adapter for source: http(s) URLs
// are NuGet v3 service indexes, anything else is a local folder.
func NewPackageRepository(source string, timeoutSec int, retries int, retryDelayMs int) ports.PackageRepositoryPort {
	trimmed := strings.TrimSpace(source)
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return NewNuGetV3Adapter(trimmed, timeoutSec, retries, retryDelayMs)
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		trimmed = abs
	}
	if _, err := os.Stat(trimmed); err != nil {
		log.Warn().Str("source", trimmed).Msg("local package feed does not exist")
	}
	return NewLocalFeedAdapter(trimmed)
}

var _ ports.PackageRepositoryPort = (*NuGetV3Adapter)(nil)
