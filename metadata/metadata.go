package metadata

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"os"
	"time"

	"github.com/h2non/filetype"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rwcarlsen/goexif/exif"
)

const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// ForFile inspects the file a clipboard entry points at and extracts
// embedded document properties. The result always carries the sniffed
// MIME type; extractor failures degrade to the MIME type alone.
func ForFile(path string, maxBytes int64) map[string]interface{} {
	meta := make(map[string]interface{})

	mime := sniffMIME(path)
	if mime == "" {
		return meta
	}
	meta["mime_type"] = mime

	var props map[string]interface{}
	switch mime {
	case "image/jpeg", "image/png":
		props = imageProperties(path, maxBytes)
	case "application/pdf":
		props = pdfProperties(path, maxBytes)
	case docxMIME:
		props = docxProperties(path, maxBytes)
	}
	for k, v := range props {
		meta[k] = v
	}

	return meta
}

func sniffMIME(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	// Office document matchers need more than the 262-byte magic window.
	head := make([]byte, 8192)
	n, err := io.ReadFull(f, head)
	if err != nil && n == 0 {
		return ""
	}
	kind, err := filetype.Match(head[:n])
	if err != nil || kind == filetype.Unknown {
		return ""
	}
	return kind.MIME.Value
}

// imageProperties extracts a subset of EXIF tags.
func imageProperties(path string, maxBytes int64) map[string]interface{} {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var reader io.Reader = f
	if maxBytes > 0 {
		reader = io.LimitReader(f, maxBytes)
	}
	x, err := exif.Decode(reader)
	if err != nil {
		return nil
	}

	props := make(map[string]interface{})
	if tm, err := x.DateTime(); err == nil {
		props["datetime"] = tm.Format(time.RFC3339)
	}
	if makeTag, err := x.Get(exif.Make); err == nil {
		props["make"] = makeTag.String()
	}
	if modelTag, err := x.Get(exif.Model); err == nil {
		props["model"] = modelTag.String()
	}
	return props
}

// pdfProperties reads standard PDF document information.
func pdfProperties(path string, maxBytes int64) map[string]interface{} {
	if maxBytes > 0 {
		info, err := os.Stat(path)
		if err != nil || info.Size() > maxBytes {
			return nil
		}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	info, err := api.PDFInfo(f, path, nil, false, nil)
	if err != nil {
		return nil
	}

	props := make(map[string]interface{})
	if info.Title != "" {
		props["title"] = info.Title
	}
	if info.Author != "" {
		props["author"] = info.Author
	}
	if info.Creator != "" {
		props["creator"] = info.Creator
	}
	if info.Producer != "" {
		props["producer"] = info.Producer
	}
	return props
}

// docxProperties parses core properties from a DOCX archive.
func docxProperties(path string, maxBytes int64) map[string]interface{} {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil
	}
	defer r.Close()

	var coreFile *zip.File
	for _, f := range r.File {
		if f.Name == "docProps/core.xml" {
			if maxBytes > 0 && f.UncompressedSize64 > uint64(maxBytes) {
				return nil
			}
			coreFile = f
			break
		}
	}
	if coreFile == nil {
		return nil
	}

	rc, err := coreFile.Open()
	if err != nil {
		return nil
	}
	defer rc.Close()

	type coreProperties struct {
		Title       string `xml:"title"`
		Subject     string `xml:"subject"`
		Creator     string `xml:"creator"`
		Keywords    string `xml:"keywords"`
		Description string `xml:"description"`
	}

	var parsed coreProperties
	var reader io.Reader = rc
	if maxBytes > 0 {
		reader = io.LimitReader(rc, maxBytes)
	}
	if err := xml.NewDecoder(reader).Decode(&parsed); err != nil {
		return nil
	}

	props := make(map[string]interface{})
	if parsed.Title != "" {
		props["title"] = parsed.Title
	}
	if parsed.Subject != "" {
		props["subject"] = parsed.Subject
	}
	if parsed.Creator != "" {
		props["creator"] = parsed.Creator
	}
	if parsed.Keywords != "" {
		props["keywords"] = parsed.Keywords
	}
	if parsed.Description != "" {
		props["description"] = parsed.Description
	}
	return props
}
