package fsxlocal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/Abraxas-365/mandrillx/pkg/fsx"
)

// LocalFileSystem implements fsx.FileSystem on a directory of the local disk.
type LocalFileSystem struct {
	basePath string
}

// NewLocalFileSystem creates the base directory if needed.
func NewLocalFileSystem(basePath string) (*LocalFileSystem, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	return &LocalFileSystem{basePath: absPath}, nil
}

// GetBasePath returns the base path
func (lfs *LocalFileSystem) GetBasePath() string {
	return lfs.basePath
}

func (lfs *LocalFileSystem) ReadFile(_ context.Context, path string) ([]byte, error) {
	fullPath, err := lfs.fullPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, readError(path, err)
	}
	return data, nil
}

func (lfs *LocalFileSystem) ReadFileStream(_ context.Context, path string) (io.ReadCloser, error) {
	fullPath, err := lfs.fullPath(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		return nil, readError(path, err)
	}
	return file, nil
}

func (lfs *LocalFileSystem) Stat(_ context.Context, path string) (fsx.FileInfo, error) {
	fullPath, err := lfs.fullPath(path)
	if err != nil {
		return fsx.FileInfo{}, err
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		return fsx.FileInfo{}, readError(path, err)
	}
	return fileInfo(info), nil
}

func (lfs *LocalFileSystem) List(_ context.Context, path string) ([]fsx.FileInfo, error) {
	fullPath, err := lfs.fullPath(path)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, readError(path, err)
	}

	infos := make([]fsx.FileInfo, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue // removed while listing
		}
		infos = append(infos, fileInfo(info))
	}
	return infos, nil
}

func (lfs *LocalFileSystem) Exists(_ context.Context, path string) (bool, error) {
	fullPath, err := lfs.fullPath(path)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(fullPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fsx.ReadFailed(path, err)
	}
	return true, nil
}

func (lfs *LocalFileSystem) WriteFile(_ context.Context, path string, data []byte) error {
	fullPath, err := lfs.fullPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fsx.WriteFailed(path, err)
	}
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return fsx.WriteFailed(path, err)
	}
	return nil
}

func (lfs *LocalFileSystem) WriteFileStream(_ context.Context, path string, r io.Reader) error {
	fullPath, err := lfs.fullPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fsx.WriteFailed(path, err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fsx.WriteFailed(path, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, r); err != nil {
		return fsx.WriteFailed(path, err)
	}
	return nil
}

// fullPath resolves path under the base directory and rejects paths that
// would leave it.
func (lfs *LocalFileSystem) fullPath(path string) (string, error) {
	full := filepath.Join(lfs.basePath, path)
	if full != lfs.basePath && !strings.HasPrefix(full, lfs.basePath+string(filepath.Separator)) {
		return "", fsx.InvalidPath(path)
	}
	return full, nil
}

func readError(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fsx.NotFound(path)
	}
	return fsx.ReadFailed(path, err)
}

func fileInfo(info fs.FileInfo) fsx.FileInfo {
	return fsx.FileInfo{
		Name:        info.Name(),
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		IsDir:       info.IsDir(),
		ContentType: detectContentType(info.Name()),
		Metadata:    make(map[string]string),
	}
}

// detectContentType guesses the MIME type from the file extension.
func detectContentType(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
