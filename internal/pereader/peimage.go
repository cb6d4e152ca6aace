package pereader

import "fmt"

// section is one row of the PE section table (ECMA-335 §II.25.3 /
// PE-COFF spec §4), just the fields needed to translate an RVA to a
// file offset.
type section struct {
	virtualAddress uint32
	virtualSize    uint32
	rawSize        uint32
	rawOffset      uint32
}

// peImage is the handful of facts this module needs out of the PE/COFF
// container: where the section table is (for RVA translation) and
// where the CLI header's MetaData and Resources directories point.
type peImage struct {
	sections    []section
	metadataRVA uint32
	metadataLen uint32
	resourceRVA uint32
	resourceLen uint32
}

const (
	peMagic32 = 0x10B
	peMagic64 = 0x20B

	cliHeaderDirectoryIndex = 14 // IMAGE_DIRECTORY_ENTRY_COMHEADER
)

// parsePEImage walks the DOS stub, PE/COFF header, and optional-header
// data directories to locate the CLI header, then the CLI header to
// locate the metadata root and (optionally) the managed resources
// blob.
func parsePEImage(data []byte) (*peImage, error) {
	c := newCursor(data)

	if err := c.skip(0x3C); err != nil {
		return nil, fmt.Errorf("pereader: not a PE image: %w", err)
	}
	lfanewOff, err := c.u32()
	if err != nil {
		return nil, fmt.Errorf("pereader: missing e_lfanew: %w", err)
	}

	c = c.at(int(lfanewOff))
	sig, err := c.bytes(4)
	if err != nil || string(sig) != "PE\x00\x00" {
		return nil, fmt.Errorf("pereader: missing PE signature")
	}

	if err := c.skip(2); err != nil { // Machine
		return nil, err
	}
	numSections, err := c.u16()
	if err != nil {
		return nil, err
	}
	if err := c.skip(4 + 4 + 4); err != nil { // TimeDateStamp, PointerToSymbolTable, NumberOfSymbols
		return nil, err
	}
	optionalHeaderSize, err := c.u16()
	if err != nil {
		return nil, err
	}
	if err := c.skip(2); err != nil { // Characteristics
		return nil, err
	}

	optionalHeaderStart := c.pos
	magic, err := c.u16()
	if err != nil {
		return nil, fmt.Errorf("pereader: missing optional header: %w", err)
	}

	var dataDirOffset int
	switch magic {
	case peMagic32:
		dataDirOffset = optionalHeaderStart + 96
	case peMagic64:
		dataDirOffset = optionalHeaderStart + 112
	default:
		return nil, fmt.Errorf("pereader: unrecognized optional header magic 0x%X", magic)
	}

	dd := c.at(dataDirOffset + cliHeaderDirectoryIndex*8)
	cliRVA, err := dd.u32()
	if err != nil {
		return nil, fmt.Errorf("pereader: missing CLI header data directory: %w", err)
	}
	cliSize, err := dd.u32()
	if err != nil {
		return nil, err
	}
	if cliRVA == 0 || cliSize == 0 {
		return nil, fmt.Errorf("pereader: image has no CLI header - not a managed assembly")
	}

	sectionTableStart := optionalHeaderStart + int(optionalHeaderSize)
	sections, err := parseSectionTable(c.at(sectionTableStart), int(numSections))
	if err != nil {
		return nil, err
	}

	img := &peImage{sections: sections}

	cliOffset, err := rvaToOffset(sections, cliRVA)
	if err != nil {
		return nil, fmt.Errorf("pereader: CLI header: %w", err)
	}
	if err := img.parseCLIHeader(newCursor(data).at(cliOffset)); err != nil {
		return nil, err
	}

	return img, nil
}

func parseSectionTable(c *cursor, count int) ([]section, error) {
	sections := make([]section, 0, count)
	for i := 0; i < count; i++ {
		row := c.at(c.pos + i*40)
		if err := row.skip(8); err != nil { // Name
			return nil, fmt.Errorf("pereader: section table truncated: %w", err)
		}
		virtualSize, err := row.u32()
		if err != nil {
			return nil, err
		}
		virtualAddress, err := row.u32()
		if err != nil {
			return nil, err
		}
		rawSize, err := row.u32()
		if err != nil {
			return nil, err
		}
		rawOffset, err := row.u32()
		if err != nil {
			return nil, err
		}
		sections = append(sections, section{
			virtualAddress: virtualAddress,
			virtualSize:    virtualSize,
			rawSize:        rawSize,
			rawOffset:      rawOffset,
		})
	}
	return sections, nil
}

// rvaToOffset maps a relative virtual address to a file offset by
// finding the section whose virtual range contains it.
func rvaToOffset(sections []section, rva uint32) (int, error) {
	for _, s := range sections {
		span := s.virtualSize
		if s.rawSize > span {
			span = s.rawSize
		}
		if rva >= s.virtualAddress && rva < s.virtualAddress+span {
			return int(s.rawOffset + (rva - s.virtualAddress)), nil
		}
	}
	return 0, fmt.Errorf("RVA 0x%X not contained in any section", rva)
}

// parseCLIHeader reads the CLI header (ECMA-335 §II.25.3.3) located at
// c, recording the MetaData and Resources directory entries.
func (img *peImage) parseCLIHeader(c *cursor) error {
	if err := c.skip(4 + 2 + 2); err != nil { // Cb, MajorRuntimeVersion, MinorRuntimeVersion
		return fmt.Errorf("pereader: CLI header truncated: %w", err)
	}
	metadataRVA, err := c.u32()
	if err != nil {
		return err
	}
	metadataLen, err := c.u32()
	if err != nil {
		return err
	}
	if err := c.skip(4 + 4); err != nil { // Flags, EntryPointToken
		return err
	}
	resourceRVA, err := c.u32()
	if err != nil {
		return err
	}
	resourceLen, err := c.u32()
	if err != nil {
		return err
	}

	img.metadataRVA, img.metadataLen = metadataRVA, metadataLen
	img.resourceRVA, img.resourceLen = resourceRVA, resourceLen
	return nil
}
