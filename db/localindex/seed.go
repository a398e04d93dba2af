package localindex

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	KindFolder   = "folder"
	KindProgram  = "program"
	KindPicture  = "picture"
	KindDocument = "document"
)

var kindTexts = map[string]string{
	KindFolder:   "Folder",
	KindProgram:  "Program",
	KindPicture:  "Picture",
	KindDocument: "Document",
}

// Seed walks rootPath and adds every non-hidden file and folder to the index.
// It returns the number of items added.
func (x *Index) Seed(ctx context.Context, rootPath string) (int, error) {
	rootPath, err := filepath.Abs(rootPath)
	if err != nil {
		return 0, err
	}

	var documents []Document
	total := 0
	err = filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			x.logger.Error("could not walk through file or directory", "path", path, "err", err.Error())
			if errors.Is(err, os.ErrPermission) {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// Skip hidden entries but not the root directory
		if strings.HasPrefix(info.Name(), ".") && path != rootPath {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		documents = append(documents, newDocument(path, info))
		if len(documents) == indexingBatchSize {
			if err := x.Add(documents); err != nil {
				return err
			}
			total += len(documents)
			documents = documents[:0]
		}
		return nil
	})
	if err != nil {
		return total, err
	}

	if len(documents) > 0 {
		if err := x.Add(documents); err != nil {
			return total, err
		}
		total += len(documents)
	}

	x.logger.Info("seeded local index", "root", rootPath, "items", total)
	return total, nil
}

func newDocument(path string, info os.FileInfo) Document {
	itemURL := (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
	kind := kindOf(path, info)
	return Document{
		ID:       uuid.NewSHA1(uuid.NameSpaceURL, []byte(itemURL)).String(),
		URL:      itemURL,
		Name:     info.Name(),
		Path:     path,
		Kind:     kind,
		KindText: kindTexts[kind],
		ModTime:  info.ModTime(),
	}
}

func kindOf(path string, info os.FileInfo) string {
	if info.IsDir() {
		return KindFolder
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".exe", ".bat", ".cmd", ".com", ".msi", ".lnk", ".sh", ".appimage":
		return KindProgram
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".svg", ".webp", ".heic":
		return KindPicture
	}

	if info.Mode()&0111 != 0 {
		return KindProgram
	}
	return KindDocument
}
