package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ZipExtension is appended to archives wrapped in a zip file.
const ZipExtension = ".zip"

const (
	zipCreateErrorFormat = "create zip %s: %w"
	zipOpenErrorFormat   = "open zip %s: %w"
	zipEntryErrorFormat  = "open zip entry %s: %w"
)

// ErrEmptyZip is returned when a zip file contains no file entries.
var ErrEmptyZip = errors.New("zip file contains no files")

// IsZipPath reports whether path carries the zip extension.
func IsZipPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ZipExtension)
}

// ZipFile writes sourcePath as the single deflated entry of a new zip file at zipPath.
func ZipFile(sourcePath string, zipPath string) (resultError error) {
	sourceFile, openError := os.Open(sourcePath)
	if openError != nil {
		return fmt.Errorf(zipCreateErrorFormat, zipPath, openError)
	}
	defer sourceFile.Close()

	sourceInfo, statError := sourceFile.Stat()
	if statError != nil {
		return fmt.Errorf(zipCreateErrorFormat, zipPath, statError)
	}

	zipHandle, createError := os.Create(zipPath)
	if createError != nil {
		return fmt.Errorf(zipCreateErrorFormat, zipPath, createError)
	}
	defer func() {
		if closeError := zipHandle.Close(); closeError != nil && resultError == nil {
			resultError = fmt.Errorf(zipCreateErrorFormat, zipPath, closeError)
		}
	}()

	zipWriter := zip.NewWriter(zipHandle)
	header, headerError := zip.FileInfoHeader(sourceInfo)
	if headerError != nil {
		return fmt.Errorf(zipCreateErrorFormat, zipPath, headerError)
	}
	header.Name = filepath.Base(sourcePath)
	header.Method = zip.Deflate
	entryWriter, entryError := zipWriter.CreateHeader(header)
	if entryError != nil {
		return fmt.Errorf(zipCreateErrorFormat, zipPath, entryError)
	}
	if _, copyError := io.Copy(entryWriter, sourceFile); copyError != nil {
		return fmt.Errorf(zipCreateErrorFormat, zipPath, copyError)
	}
	if closeError := zipWriter.Close(); closeError != nil {
		return fmt.Errorf(zipCreateErrorFormat, zipPath, closeError)
	}
	return nil
}

// zipEntryReader closes both the entry and the enclosing zip file.
type zipEntryReader struct {
	io.ReadCloser
	zipReader *zip.ReadCloser
}

func (reader zipEntryReader) Close() error {
	entryCloseError := reader.ReadCloser.Close()
	zipCloseError := reader.zipReader.Close()
	return errors.Join(entryCloseError, zipCloseError)
}

// OpenFirstEntry opens the first file entry of the zip file at zipPath and returns its name.
func OpenFirstEntry(zipPath string) (io.ReadCloser, string, error) {
	zipReader, openError := zip.OpenReader(zipPath)
	if openError != nil {
		return nil, "", fmt.Errorf(zipOpenErrorFormat, zipPath, openError)
	}
	for _, entry := range zipReader.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		entryReader, entryError := entry.Open()
		if entryError != nil {
			zipReader.Close()
			return nil, "", fmt.Errorf(zipEntryErrorFormat, entry.Name, entryError)
		}
		return zipEntryReader{ReadCloser: entryReader, zipReader: zipReader}, entry.Name, nil
	}
	zipReader.Close()
	return nil, "", fmt.Errorf(zipOpenErrorFormat, zipPath, ErrEmptyZip)
}
