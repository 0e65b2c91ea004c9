// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package nsp

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// File transfer configuration
const (
	// FileServiceDownloadPath is the NSP file service download endpoint
	FileServiceDownloadPath = "/nsp-file-service-app/rest/api/v1/file/downloadFile"

	// FileServiceUploadPath is the NSP file service upload endpoint
	FileServiceUploadPath = "/nsp-file-service-app/rest/api/v1/file/uploadFile"

	// DownloadChunkSize is the buffer size for streamed downloads
	DownloadChunkSize = 64 * 1024

	// DownloadMaxSize caps streamed downloads to protect against runaway
	// responses filling the disk
	DownloadMaxSize = 1 << 30 // 1 GiB

	// multipartBoundaryPrefix is the boundary prefix for file uploads
	multipartBoundaryPrefix = "----NSPFormBoundary"
)

// FileTransferRes describes a completed file transfer
type FileTransferRes struct {
	// RemotePath is the file path on the controller
	RemotePath string

	// LocalPath is the file path on the local filesystem
	LocalPath string

	// FileSize is the number of bytes transferred
	FileSize int64

	// Checksum is the hex-encoded MD5 digest of the transferred content
	Checksum string
}

// DownloadURL builds the file service download path for a remote file.
func DownloadURL(remotePath string) string {
	return FileServiceDownloadPath + "?filePath=" + url.QueryEscape(remotePath)
}

// UploadURL builds the file service upload path for a remote directory.
func UploadURL(remoteDir string, overwrite bool) string {
	return FileServiceUploadPath +
		"?dirName=" + url.QueryEscape(remoteDir) +
		"&overwrite=" + strconv.FormatBool(overwrite)
}

// DownloadFile downloads a file from the NSP file service to a local path.
//
// The response is streamed to a temporary file in 64 KiB chunks while an MD5
// digest is computed, then atomically renamed into place, so an interrupted
// download never leaves a partial file at the destination. Downloads larger
// than 1 GiB are aborted.
//
// When dest is an existing directory, the file name is derived from the
// remote path.
//
// Example:
//
//	result, err := client.DownloadFile(ctx, "/backups/config.zip", "/tmp")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("downloaded %d bytes, md5 %s\n", result.FileSize, result.Checksum)
func (c *Client) DownloadFile(ctx context.Context, remotePath, dest string) (FileTransferRes, error) {
	return c.Download(ctx, DownloadURL(remotePath), remotePath, dest)
}

// Download streams a GET response from an arbitrary endpoint path to a local
// file. Most callers use DownloadFile; Download is useful for other endpoints
// that serve file content.
func (c *Client) Download(ctx context.Context, endpointPath, remotePath, dest string) (FileTransferRes, error) {
	if err := c.Authenticate(ctx); err != nil {
		return FileTransferRes{}, err
	}

	localPath, err := resolveLocalPath(dest, remotePath)
	if err != nil {
		return FileTransferRes{}, err
	}

	c.logger.Debug(ctx, "downloading file",
		"remote", remotePath,
		"local", localPath)

	attemptCtx, cancel := c.createAttemptContext(ctx, Req{})
	defer cancel()

	httpReq, err := http.NewRequestWithContext(attemptCtx, "GET", c.Url+endpointPath, nil)
	if err != nil {
		return FileTransferRes{}, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.bearerToken())

	httpRes, err := c.HttpClient.Do(httpReq)
	if err != nil {
		return FileTransferRes{}, fmt.Errorf("GET %s: %w", endpointPath, err)
	}
	defer httpRes.Body.Close()

	if httpRes.StatusCode < 200 || httpRes.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(httpRes.Body, DownloadChunkSize))
		res := newRes(httpRes.StatusCode, httpRes.Header, body)
		return FileTransferRes{}, &ApiError{
			Method:     "GET",
			Path:       endpointPath,
			StatusCode: httpRes.StatusCode,
			Message:    errorMessage(res),
		}
	}

	// Stream into a temporary file next to the destination so the final
	// rename stays on the same filesystem
	tmp, err := os.CreateTemp(filepath.Dir(localPath), "."+filepath.Base(localPath)+".*")
	if err != nil {
		return FileTransferRes{}, fmt.Errorf("creating temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpPath) // no-op after successful rename
	}()

	hash := md5.New() //nolint:gosec // G401: integrity check, not cryptographic use
	limited := io.LimitReader(httpRes.Body, DownloadMaxSize+1)
	written, err := io.CopyBuffer(io.MultiWriter(tmp, hash), limited, make([]byte, DownloadChunkSize))
	if err != nil {
		return FileTransferRes{}, fmt.Errorf("streaming download: %w", err)
	}
	if written > DownloadMaxSize {
		return FileTransferRes{}, fmt.Errorf("download exceeds size limit of %d bytes", int64(DownloadMaxSize))
	}

	if err := tmp.Close(); err != nil {
		return FileTransferRes{}, fmt.Errorf("closing temporary file: %w", err)
	}
	if err := os.Rename(tmpPath, localPath); err != nil {
		return FileTransferRes{}, fmt.Errorf("moving download into place: %w", err)
	}

	result := FileTransferRes{
		RemotePath: remotePath,
		LocalPath:  localPath,
		FileSize:   written,
		Checksum:   hex.EncodeToString(hash.Sum(nil)),
	}

	c.logger.Info(ctx, "file downloaded",
		"remote", remotePath,
		"local", localPath,
		"size", written,
		"md5", result.Checksum)

	return result, nil
}

// UploadFile uploads a local file to the NSP file service.
//
// The remote path determines the target directory and file name on the
// controller: a path ending in "/" or without a file extension is treated as
// a directory and the local file name is kept; otherwise the last path
// element becomes the remote file name.
//
// Example:
//
//	res, err := client.UploadFile(ctx, "/tmp/config.zip", "/backups/", true)
func (c *Client) UploadFile(ctx context.Context, localPath, remotePath string, overwrite bool) (Res, error) {
	content, err := os.ReadFile(localPath)
	if err != nil {
		return Res{}, fmt.Errorf("reading %s: %w", localPath, err)
	}

	remoteDir, remoteName := resolveRemoteTarget(remotePath, filepath.Base(localPath))

	body, contentType, err := buildMultipartBody(remoteName, content)
	if err != nil {
		return Res{}, err
	}

	c.logger.Debug(ctx, "uploading file",
		"local", localPath,
		"remote_dir", remoteDir,
		"remote_name", remoteName,
		"size", len(content))

	return c.Post(ctx, UploadURL(remoteDir, overwrite), body,
		ContentType(contentType),
		NoLogPayload(),
	)
}

// buildMultipartBody builds a multipart/form-data body carrying a single file
// part. Returns the body and the Content-Type header value including the
// boundary.
func buildMultipartBody(fileName string, content []byte) (string, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	boundary := multipartBoundaryPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := writer.SetBoundary(boundary); err != nil {
		return "", "", fmt.Errorf("setting multipart boundary: %w", err)
	}

	partType := mime.TypeByExtension(filepath.Ext(fileName))
	if partType == "" {
		partType = MediaTypeOctetStream
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName))
	header.Set("Content-Type", partType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return "", "", fmt.Errorf("creating multipart part: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return "", "", fmt.Errorf("writing multipart content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", "", fmt.Errorf("finalizing multipart body: %w", err)
	}

	return buf.String(), writer.FormDataContentType(), nil
}

// resolveLocalPath resolves the local destination for a download. When dest
// is an existing directory the file name is derived from the remote path.
func resolveLocalPath(dest, remotePath string) (string, error) {
	info, err := os.Stat(dest)
	if err == nil && info.IsDir() {
		name := path.Base(remotePath)
		if name == "" || name == "." || name == "/" {
			return "", fmt.Errorf("cannot derive file name from remote path %q", remotePath)
		}
		return filepath.Join(dest, name), nil
	}
	if dir := filepath.Dir(dest); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return "", fmt.Errorf("destination directory does not exist: %s", dir)
		}
	}
	return dest, nil
}

// resolveRemoteTarget splits a remote upload path into directory and file
// name. Paths ending in "/" or whose last element has no extension are
// treated as directories; localName is then used as the remote file name.
func resolveRemoteTarget(remotePath, localName string) (string, string) {
	if remotePath == "" || remotePath == "/" {
		return "/", localName
	}
	if strings.HasSuffix(remotePath, "/") {
		return strings.TrimSuffix(remotePath, "/"), localName
	}
	base := path.Base(remotePath)
	if path.Ext(base) == "" {
		return remotePath, localName
	}
	dir := path.Dir(remotePath)
	if dir == "." {
		dir = "/"
	}
	return dir, base
}
