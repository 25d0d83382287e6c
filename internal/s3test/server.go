// Package s3test provides an in-memory S3-compatible HTTP server for tests.
// It implements the subset of the S3 API used by the gateway (bucket
// create/head/location, object put/get/head and ListObjectsV2) and lets tests
// inject failures for individual keys or listing pages.
package s3test

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/require"

	"assetgate/internal/storage"
)

const (
	AccessKeyID     = "minioadmin"
	SecretAccessKey = "minioadmin"
	Region          = "us-east-1"
)

// Op identifies a class of request handled by the server.
type Op string

const (
	OpPutObject   Op = "PutObject"
	OpGetObject   Op = "GetObject"
	OpHeadObject  Op = "HeadObject"
	OpListObjects Op = "ListObjectsV2"
)

type object struct {
	data        []byte
	contentType string
	etag        string
	modified    time.Time
}

type fault struct {
	status int
	code   string
}

// Server is an in-memory S3 endpoint.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	buckets   map[string]map[string]object
	keyFaults map[string]fault
	pageFault map[int]fault
	counts    map[Op]int
	lists     int
}

// New starts a Server with the given buckets already created. The server is
// closed when the test finishes.
func New(t testing.TB, buckets ...string) *Server {
	t.Helper()

	s := &Server{
		buckets:   make(map[string]map[string]object),
		keyFaults: make(map[string]fault),
		pageFault: make(map[int]fault),
		counts:    make(map[Op]int),
	}
	for _, b := range buckets {
		s.buckets[b] = make(map[string]object)
	}

	s.Server = httptest.NewServer(s.Handler())
	t.Cleanup(s.Close)
	return s
}

// Endpoint returns the host:port of the server, as expected by minio-go.
func (s *Server) Endpoint() string {
	return strings.TrimPrefix(s.URL, "http://")
}

// Client returns a minio-go client pointed at the server.
func (s *Server) Client(t testing.TB) *minio.Client {
	t.Helper()

	client, err := minio.New(s.Endpoint(), &minio.Options{
		Creds:      credentials.NewStaticV4(AccessKeyID, SecretAccessKey, ""),
		Secure:     false,
		Region:     Region,
		MaxRetries: 1,
	})
	require.NoError(t, err, "creating minio client")
	return client
}

// Store returns a storage.MinioStore talking to the server.
func (s *Server) Store(t testing.TB, pageSize int) *storage.MinioStore {
	t.Helper()
	return storage.NewMinioStoreFromClient(s.Client(t), pageSize)
}

// PutObject seeds an object directly, bypassing HTTP.
func (s *Server) PutObject(bucket string, key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storeLocked(bucket, key, data, "application/octet-stream")
}

// Object returns the stored payload for key.
func (s *Server) Object(bucket string, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.buckets[bucket][key]
	return obj.data, ok
}

// FailKey makes every object request for bucket/key answer with the given
// status and S3 error code.
func (s *Server) FailKey(bucket string, key string, status int, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keyFaults[bucket+"/"+key] = fault{status: status, code: code}
}

// FailListPage makes the n-th (1-based) ListObjectsV2 request fail.
func (s *Server) FailListPage(n int, status int, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageFault[n] = fault{status: status, code: code}
}

// Count returns how many requests of the given kind were received.
func (s *Server) Count(op Op) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[op]
}

func (s *Server) storeLocked(bucket string, key string, data []byte, contentType string) {
	sum := md5.Sum(data)
	s.buckets[bucket][key] = object{
		data:        data,
		contentType: contentType,
		etag:        hex.EncodeToString(sum[:]),
		modified:    time.Now().UTC().Truncate(time.Second),
	}
}

// Handler returns the S3 request router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("PUT /{bucket}", func(w http.ResponseWriter, r *http.Request) {
		s.handleBucketPut(w, r, r.PathValue("bucket"))
	})
	mux.HandleFunc("HEAD /{bucket}", func(w http.ResponseWriter, r *http.Request) {
		s.handleBucketHead(w, r, r.PathValue("bucket"))
	})
	mux.HandleFunc("GET /{bucket}", func(w http.ResponseWriter, r *http.Request) {
		s.handleBucketGet(w, r, r.PathValue("bucket"))
	})

	mux.HandleFunc("PUT /{bucket}/{key...}", func(w http.ResponseWriter, r *http.Request) {
		s.handleObjectPut(w, r, r.PathValue("bucket"), r.PathValue("key"))
	})
	mux.HandleFunc("GET /{bucket}/{key...}", func(w http.ResponseWriter, r *http.Request) {
		s.handleObjectGet(w, r, r.PathValue("bucket"), r.PathValue("key"))
	})
	mux.HandleFunc("HEAD /{bucket}/{key...}", func(w http.ResponseWriter, r *http.Request) {
		s.handleObjectHead(w, r, r.PathValue("bucket"), r.PathValue("key"))
	})

	return SlashFix(mux)
}

// SlashFix collapses duplicate slashes and strips a trailing slash so that
// "/bucket/" and "/bucket" route identically.
func SlashFix(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.URL.Path = strings.ReplaceAll(r.URL.Path, "//", "/")

		if r.URL.Path != "/" && strings.HasSuffix(r.URL.Path, "/") {
			r.URL.Path = strings.TrimSuffix(r.URL.Path, "/")
		}

		next.ServeHTTP(w, r)
	})
}

// writeS3Error writes a minimal S3-style XML error response.
func writeS3Error(w http.ResponseWriter, code string, message string, resource string, status int) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	_ = xml.NewEncoder(w).Encode(S3Error{
		Code:     code,
		Message:  message,
		Resource: resource,
	})
}

func writeNoSuchBucketError(w http.ResponseWriter, r *http.Request) {
	writeS3Error(w, "NoSuchBucket", "The specified bucket does not exist.", r.URL.Path, http.StatusNotFound)
}

func writeNoSuchKeyError(w http.ResponseWriter, r *http.Request) {
	writeS3Error(w, "NoSuchKey", "The specified key does not exist.", r.URL.Path, http.StatusNotFound)
}

func writeFault(w http.ResponseWriter, r *http.Request, f fault) {
	writeS3Error(w, f.code, "Injected failure.", r.URL.Path, f.status)
}

// writeXMLResponse encodes v as XML and writes it to w with a 200 OK status.
func writeXMLResponse(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	return xml.NewEncoder(w).Encode(v)
}

// lookupObject records the request and returns the object, or the fault to
// answer with.
func (s *Server) lookupObject(op Op, bucket string, key string) (object, *fault, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counts[op]++
	if f, ok := s.keyFaults[bucket+"/"+key]; ok {
		return object{}, &f, false
	}

	objects, ok := s.buckets[bucket]
	if !ok {
		return object{}, &fault{status: http.StatusNotFound, code: "NoSuchBucket"}, false
	}

	obj, ok := objects[key]
	return obj, nil, ok
}

func (s *Server) handleBucketPut(w http.ResponseWriter, r *http.Request, bucket string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.buckets[bucket]; ok {
		writeS3Error(w, "BucketAlreadyOwnedByYou", "Your previous request to create the named bucket succeeded and you already own it.", r.URL.Path, http.StatusConflict)
		return
	}
	s.buckets[bucket] = make(map[string]object)
	w.Header().Set("Location", "/"+bucket)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleBucketHead(w http.ResponseWriter, r *http.Request, bucket string) {
	s.mu.Lock()
	_, ok := s.buckets[bucket]
	s.mu.Unlock()

	if !ok {
		writeNoSuchBucketError(w, r)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleBucketGet(w http.ResponseWriter, r *http.Request, bucket string) {
	q := r.URL.Query()
	switch {
	case q.Has("location"):
		_ = writeXMLResponse(w, LocationConstraint{XMLNS: S3XMLNamespace, Region: Region})
	case q.Get("list-type") == "2":
		s.handleListObjectsV2(w, r, bucket)
	default:
		writeS3Error(w, "NotImplemented", "ListObjects v1 is not implemented.", r.URL.Path, http.StatusNotImplemented)
	}
}

// handleListObjectsV2 returns keys in lexical order, using the last returned
// key as the continuation token.
func (s *Server) handleListObjectsV2(w http.ResponseWriter, r *http.Request, bucket string) {
	s.mu.Lock()
	s.counts[OpListObjects]++
	s.lists++
	f, failed := s.pageFault[s.lists]
	objects, ok := s.buckets[bucket]

	var keys []string
	if ok {
		keys = make([]string, 0, len(objects))
		for k := range objects {
			keys = append(keys, k)
		}
	}

	snapshot := make(map[string]object, len(keys))
	for _, k := range keys {
		snapshot[k] = objects[k]
	}
	s.mu.Unlock()

	if failed {
		writeFault(w, r, f)
		return
	}
	if !ok {
		writeNoSuchBucketError(w, r)
		return
	}

	q := r.URL.Query()
	prefix := q.Get("prefix")
	continuationToken := q.Get("continuation-token")
	startAfter := ""
	if continuationToken == "" {
		startAfter = q.Get("start-after")
	}

	maxKeys := 1000
	if raw := q.Get("max-keys"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			maxKeys = v
		}
	}

	sort.Strings(keys)

	marker := continuationToken
	if marker == "" {
		marker = startAfter
	}

	var (
		summaries   []ObjectSummary
		isTruncated bool
	)
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) || (marker != "" && key <= marker) {
			continue
		}
		if len(summaries) == maxKeys {
			isTruncated = true
			break
		}

		obj := snapshot[key]
		summaries = append(summaries, ObjectSummary{
			Key:          key,
			LastModified: obj.modified.Format(time.RFC3339),
			ETag:         fmt.Sprintf("\"%s\"", obj.etag),
			Size:         int64(len(obj.data)),
			StorageClass: "STANDARD",
		})
	}

	nextContinuationToken := ""
	if isTruncated {
		nextContinuationToken = summaries[len(summaries)-1].Key
	}

	resp := ListBucketResultV2{
		XMLNS:                 S3XMLNamespace,
		Name:                  bucket,
		Prefix:                prefix,
		KeyCount:              len(summaries),
		MaxKeys:               maxKeys,
		IsTruncated:           isTruncated,
		ContinuationToken:     continuationToken,
		NextContinuationToken: nextContinuationToken,
		StartAfter:            startAfter,
		Contents:              summaries,
	}

	if err := writeXMLResponse(w, resp); err != nil {
		slog.Error("Encode list objects v2 XML", "bucket", bucket, "err", err)
	}
}

func (s *Server) handleObjectPut(w http.ResponseWriter, r *http.Request, bucket string, key string) {
	defer r.Body.Close()

	s.mu.Lock()
	s.counts[OpPutObject]++
	f, failed := s.keyFaults[bucket+"/"+key]
	_, exists := s.buckets[bucket]
	s.mu.Unlock()

	if failed {
		writeFault(w, r, f)
		return
	}
	if !exists {
		writeNoSuchBucketError(w, r)
		return
	}

	var (
		data []byte
		err  error
	)
	if isStreamingPayload(r.Header.Get("X-Amz-Content-Sha256")) {
		data, err = decodeStreamingPayload(r.Body)
	} else {
		data, err = io.ReadAll(r.Body)
	}
	if err != nil {
		slog.Error("Read object payload", "bucket", bucket, "key", key, "err", err)
		writeS3Error(w, "InvalidRequest", "Failed to read request body", r.URL.Path, http.StatusBadRequest)
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	s.mu.Lock()
	s.storeLocked(bucket, key, data, contentType)
	etag := s.buckets[bucket][key].etag
	s.mu.Unlock()

	w.Header().Set("ETag", fmt.Sprintf("\"%s\"", etag))
	w.WriteHeader(http.StatusOK)
}

func writeObjectHeaders(w http.ResponseWriter, obj object) {
	w.Header().Set("Content-Type", obj.contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.data)))
	w.Header().Set("Last-Modified", obj.modified.Format(http.TimeFormat))
	w.Header().Set("ETag", fmt.Sprintf("\"%s\"", obj.etag))
	w.Header().Set("Accept-Ranges", "bytes")
}

func (s *Server) handleObjectGet(w http.ResponseWriter, r *http.Request, bucket string, key string) {
	obj, f, ok := s.lookupObject(OpGetObject, bucket, key)
	if f != nil {
		writeFault(w, r, *f)
		return
	}
	if !ok {
		writeNoSuchKeyError(w, r)
		return
	}

	writeObjectHeaders(w, obj)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(obj.data); err != nil {
		slog.Error("Stream object", "bucket", bucket, "key", key, "err", err)
	}
}

func (s *Server) handleObjectHead(w http.ResponseWriter, r *http.Request, bucket string, key string) {
	obj, f, ok := s.lookupObject(OpHeadObject, bucket, key)
	if f != nil {
		w.WriteHeader(f.status)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	writeObjectHeaders(w, obj)
	w.WriteHeader(http.StatusOK)
}
