package inspect

import (
	"bytes"
	"context"
	"debug/pe"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dllstage/pkg/observability"
)

// PE reads the import table of PE files directly, without an external tool.
type PE struct {
	Excluder *Excluder
	Logger   *log.Logger
}

// NewPE creates a builtin PE inspector. A nil excluder means [DefaultExcluder].
func NewPE(ex *Excluder, logger *log.Logger) *PE {
	if ex == nil {
		ex = DefaultExcluder
	}
	if logger == nil {
		logger = log.Default()
	}
	return &PE{Excluder: ex, Logger: logger}
}

// ID identifies this inspector in cache keys.
func (p *PE) ID() string {
	return "builtin:" + p.Excluder.Fingerprint()
}

// Inspect lists the DLLs named in the file's import directory. Files that are
// not valid PE images fail with an *InspectError.
func (p *PE) Inspect(ctx context.Context, path string) ([]Name, error) {
	start := time.Now()
	observability.Resolve().OnInspectStart(ctx, path)

	names, err := p.read(path)
	if err == nil {
		names, err = finish(p.Excluder, path, names)
	}

	observability.Resolve().OnInspectComplete(ctx, path, len(names), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	p.Logger.Debug("inspected", "file", path, "deps", len(names))
	return names, nil
}

func (p *PE) read(path string) ([]Name, error) {
	f, err := pe.Open(path)
	if err != nil {
		return nil, &InspectError{File: path, Status: -1, Err: err}
	}
	defer f.Close()

	libs, err := importedLibraries(f)
	if err != nil {
		return nil, &InspectError{File: path, Status: -1, Err: err}
	}
	names := make([]Name, 0, len(libs))
	for _, l := range libs {
		if m, ok := MatchLine("DLL Name: " + l); ok {
			names = append(names, m.Name)
		}
	}
	return names, nil
}

// importDescriptorSize is the size of one IMAGE_IMPORT_DESCRIPTOR.
const importDescriptorSize = 20

// importedLibraries walks the import directory and returns the DLL name of
// every descriptor, in file order. debug/pe's ImportedLibraries is not
// implemented for PE files, and ImportedSymbols skips DLLs that are only
// imported by ordinal.
func importedLibraries(f *pe.File) ([]string, error) {
	var dir pe.DataDirectory
	switch oh := f.OptionalHeader.(type) {
	case *pe.OptionalHeader32:
		if oh.NumberOfRvaAndSizes <= pe.IMAGE_DIRECTORY_ENTRY_IMPORT {
			return nil, nil
		}
		dir = oh.DataDirectory[pe.IMAGE_DIRECTORY_ENTRY_IMPORT]
	case *pe.OptionalHeader64:
		if oh.NumberOfRvaAndSizes <= pe.IMAGE_DIRECTORY_ENTRY_IMPORT {
			return nil, nil
		}
		dir = oh.DataDirectory[pe.IMAGE_DIRECTORY_ENTRY_IMPORT]
	default:
		return nil, nil
	}
	if dir.VirtualAddress == 0 {
		return nil, nil
	}

	data, off, err := sectionAt(f, dir.VirtualAddress)
	if err != nil {
		return nil, fmt.Errorf("import directory: %w", err)
	}

	var libs []string
	for ; ; off += importDescriptorSize {
		if off+importDescriptorSize > uint32(len(data)) {
			return nil, fmt.Errorf("import directory: truncated at rva %#x", dir.VirtualAddress)
		}
		nameRVA := binary.LittleEndian.Uint32(data[off+12 : off+16])
		if nameRVA == 0 {
			break
		}
		name, err := cString(f, nameRVA)
		if err != nil {
			return nil, fmt.Errorf("import directory: %w", err)
		}
		libs = append(libs, name)
	}
	return libs, nil
}

// sectionAt returns the data of the section holding rva and the offset of
// rva within it.
func sectionAt(f *pe.File, rva uint32) ([]byte, uint32, error) {
	for _, s := range f.Sections {
		size := max(s.VirtualSize, s.Size)
		if rva < s.VirtualAddress || rva-s.VirtualAddress >= size {
			continue
		}
		data, err := s.Data()
		if err != nil {
			return nil, 0, fmt.Errorf("read section %s: %w", s.Name, err)
		}
		off := rva - s.VirtualAddress
		if off >= uint32(len(data)) {
			return nil, 0, fmt.Errorf("rva %#x has no file data in section %s", rva, s.Name)
		}
		return data, off, nil
	}
	return nil, 0, fmt.Errorf("rva %#x is outside every section", rva)
}

func cString(f *pe.File, rva uint32) (string, error) {
	data, off, err := sectionAt(f, rva)
	if err != nil {
		return "", err
	}
	b := data[off:]
	end := bytes.IndexByte(b, 0)
	if end < 0 {
		return "", fmt.Errorf("unterminated name at rva %#x", rva)
	}
	return string(b[:end]), nil
}

var _ Inspector = (*PE)(nil)
