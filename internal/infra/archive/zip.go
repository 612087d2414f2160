package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ZipCreator bundles sampled frames into a single archive. Frames are already
// compressed images, so entries are stored rather than deflated.
type ZipCreator struct{}

func NewZipCreator() *ZipCreator {
	return &ZipCreator{}
}

func (z *ZipCreator) CreateZip(ctx context.Context, filePaths []string, outputPath string) (err error) {
	zipFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create zip file: %w", err)
	}
	defer func() {
		if cerr := zipFile.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close zip file: %w", cerr)
		}
	}()

	zw := zip.NewWriter(zipFile)
	seen := make(map[string]struct{}, len(filePaths))

	for _, fp := range filePaths {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := filepath.Base(fp)
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate entry %q in zip", name)
		}
		seen[name] = struct{}{}

		if err := addFileToZip(zw, fp, name); err != nil {
			return fmt.Errorf("add %s to zip: %w", fp, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize zip: %w", err)
	}
	return nil
}

func addFileToZip(zw *zip.Writer, filename, name string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Store

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, file)
	return err
}
