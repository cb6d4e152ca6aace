// Package pereader is the concrete, file-backed implementation of
// metadatareader.Reader: it parses a PE/COFF image's CLI header, the
// ECMA-335 metadata root and stream directory inside it, and the
// "#~"/"#-" logical-metadata tables stream, then exposes the result
// through the same typed-handle contract every other package in this
// module already consumes via metadatareader.Reader.
//
// The structure is a byte cursor (cursor.go, the same idiom
// internal/sigdecode uses over blob streams) walked by successive
// stages (peimage.go locates the CLI header, metadata.go locates the
// stream directory, tables.go decodes rows), each stage handing the
// next a narrower, already-validated slice rather than re-parsing from
// the start.
package pereader

import (
	"fmt"
	"os"

	"github.com/standardbeagle/asmsurface/internal/debug"
)

// Open parses a CLI-compiled PE image held entirely in memory and
// returns a ready metadatareader.Reader over it.
func Open(data []byte) (*Reader, error) {
	img, err := parsePEImage(data)
	if err != nil {
		return nil, err
	}
	debug.Tracef(debug.StagePE, "%d bytes, %d sections, metadata rva=0x%x len=%d\n",
		len(data), len(img.sections), img.metadataRVA, img.metadataLen)

	metadataOffset, err := rvaToOffset(img.sections, img.metadataRVA)
	if err != nil {
		return nil, fmt.Errorf("pereader: metadata root: %w", err)
	}
	if metadataOffset+int(img.metadataLen) > len(data) {
		return nil, fmt.Errorf("pereader: metadata root extends past end of file")
	}
	root, err := parseMetadataRoot(data[metadataOffset : metadataOffset+int(img.metadataLen)])
	if err != nil {
		return nil, err
	}

	tablesStream, ok := root.stream("#~")
	if !ok {
		tablesStream, ok = root.stream("#-")
	}
	if !ok {
		return nil, fmt.Errorf("pereader: no logical-metadata tables stream")
	}
	tables, err := parseTablesStream(tablesStream)
	if err != nil {
		return nil, err
	}

	strings, _ := root.stream("#Strings")
	blob, _ := root.stream("#Blob")
	debug.Tracef(debug.StageMetadata, "streams: tables=%dB strings=%dB blob=%dB\n",
		len(tablesStream), len(strings), len(blob))

	var resources []byte
	if img.resourceLen > 0 {
		resourceOffset, err := rvaToOffset(img.sections, img.resourceRVA)
		if err != nil {
			return nil, fmt.Errorf("pereader: managed resources: %w", err)
		}
		if resourceOffset+int(img.resourceLen) <= len(data) {
			resources = data[resourceOffset : resourceOffset+int(img.resourceLen)]
		}
	}

	return newReader(tables, strings, blob, resources), nil
}

// OpenFile reads and parses a CLI-compiled assembly from disk.
func OpenFile(path string) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pereader: %w", err)
	}
	return Open(data)
}
