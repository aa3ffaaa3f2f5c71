package restyutil

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"pollofpolls-backend/lib/timezone"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// MaxDumpBody is the number of body bytes kept in a dump, source pages run to
// megabytes and only their start is useful when debugging a parse.
const MaxDumpBody = 256 * 1024

var redactedHeaders = []string{"Authorization", "Cookie", "Set-Cookie"}

// Dump is one request/response exchange of an instrumented client.
type Dump struct {
	ID              string
	At              time.Time
	Duration        time.Duration
	Method          string
	URL             string
	RequestHeaders  http.Header
	RequestBody     string
	Status          int
	FinalURL        string
	ResponseHeaders http.Header
	ResponseBody    string
}

func truncateBody(body string) string {
	if len(body) <= MaxDumpBody {
		return body
	}
	return fmt.Sprintf("%s\n<%d bytes truncated>", body[:MaxDumpBody], len(body)-MaxDumpBody)
}

func readRequestBody(req *http.Request) string {
	if req == nil || req.GetBody == nil {
		return ""
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Sprintf("<failed to get request body: %s>", err)
	}
	contents, err := io.ReadAll(body)
	if err != nil {
		return fmt.Sprintf("<failed to read request body: %s>", err)
	}
	return string(contents)
}

func newDump(id string, res *resty.Response) Dump {
	dump := Dump{
		ID:              id,
		At:              res.ReceivedAt().In(timezone.Location),
		Duration:        res.Time(),
		Method:          res.Request.Method,
		URL:             res.Request.URL,
		Status:          res.StatusCode(),
		FinalURL:        res.Request.URL,
		ResponseHeaders: res.Header(),
		ResponseBody:    truncateBody(res.String()),
	}
	if raw := res.Request.RawRequest; raw != nil {
		dump.RequestHeaders = raw.Header
		dump.RequestBody = truncateBody(readRequestBody(raw))
	}
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		dump.FinalURL = res.RawResponse.Request.URL.String()
	}
	return dump
}

func formatHeaders(headers http.Header) string {
	var out strings.Builder
	for _, key := range slices.Sorted(maps.Keys(headers)) {
		for _, value := range headers[key] {
			if slices.Contains(redactedHeaders, http.CanonicalHeaderKey(key)) {
				value = "<redacted>"
			}
			fmt.Fprintf(&out, "%s: %s\n", key, value)
		}
	}
	return strings.TrimSuffix(out.String(), "\n")
}

func (d Dump) String() string {
	var out strings.Builder
	fmt.Fprintf(&out, "# %s %s (%s)\n\n", d.ID, d.At.Format(time.RFC3339), d.Duration.Round(time.Millisecond))
	fmt.Fprintf(&out, "%s %s\n", d.Method, d.URL)
	if headers := formatHeaders(d.RequestHeaders); headers != "" {
		fmt.Fprintf(&out, "%s\n", headers)
	}
	if d.RequestBody != "" {
		fmt.Fprintf(&out, "\n%s\n", d.RequestBody)
	}
	fmt.Fprintf(&out, "\n%d %s\n", d.Status, d.FinalURL)
	if headers := formatHeaders(d.ResponseHeaders); headers != "" {
		fmt.Fprintf(&out, "%s\n", headers)
	}
	fmt.Fprintf(&out, "\n%s", d.ResponseBody)
	return out.String()
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName identifies the dump by fetch time, id and the host and path it
// was sent to, so dumps of successive runs sort by time and never collide.
func (d Dump) FileName() string {
	target := d.URL
	if parsed, err := url.Parse(d.URL); err == nil {
		target = parsed.Host + parsed.Path
	}
	slug := strings.Trim(unsafeFileChars.ReplaceAllString(target, "_"), "_")
	if len(slug) > 100 {
		slug = slug[:100]
	}
	return fmt.Sprintf("%s_%s_%s.http", d.At.Format("2006-01-02_150405"), d.ID, slug)
}

// FilesystemOutput writes every dump to its own file in a directory.
type FilesystemOutput struct {
	directory string
}

func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	err := os.MkdirAll(dir, 0777)
	if err != nil {
		return FilesystemOutput{}, fmt.Errorf("create dump dir: %w", err)
	}
	return FilesystemOutput{directory: dir}, nil
}

func (o FilesystemOutput) Write(dump Dump) {
	path := filepath.Join(o.directory, dump.FileName())
	err := os.WriteFile(path, []byte(dump.String()), 0600)
	if err != nil {
		slog.Warn("failed to write request dump", "path", path, "err", err)
	}
}
