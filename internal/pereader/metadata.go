package pereader

import "fmt"

const metadataSignature = 0x424A5342 // "BSJB"

// metadataRoot is the parsed ECMA-335 §II.24.2.1 metadata root: the
// raw bytes of the whole metadata blob plus each stream's (offset,
// size) within it.
type metadataRoot struct {
	data    []byte
	streams map[string]streamHeader
}

type streamHeader struct {
	offset uint32
	size   uint32
}

func (r *metadataRoot) stream(name string) ([]byte, bool) {
	h, ok := r.streams[name]
	if !ok {
		return nil, false
	}
	end := h.offset + h.size
	if int(end) > len(r.data) {
		return nil, false
	}
	return r.data[h.offset:end], true
}

func parseMetadataRoot(data []byte) (*metadataRoot, error) {
	c := newCursor(data)

	sig, err := c.u32()
	if err != nil || sig != metadataSignature {
		return nil, fmt.Errorf("pereader: missing metadata root signature")
	}
	if err := c.skip(2 + 2 + 4); err != nil { // MajorVersion, MinorVersion, Reserved
		return nil, err
	}
	versionLen, err := c.u32()
	if err != nil {
		return nil, err
	}
	if err := c.skip(int(versionLen)); err != nil { // padded version string
		return nil, fmt.Errorf("pereader: truncated metadata version string: %w", err)
	}
	if err := c.skip(2); err != nil { // Flags
		return nil, err
	}
	streamCount, err := c.u16()
	if err != nil {
		return nil, err
	}

	streams := make(map[string]streamHeader, streamCount)
	for i := 0; i < int(streamCount); i++ {
		offset, err := c.u32()
		if err != nil {
			return nil, fmt.Errorf("pereader: truncated stream header: %w", err)
		}
		size, err := c.u32()
		if err != nil {
			return nil, err
		}
		name, err := readPaddedStreamName(c)
		if err != nil {
			return nil, err
		}
		streams[name] = streamHeader{offset: offset, size: size}
	}

	return &metadataRoot{data: data, streams: streams}, nil
}

// readPaddedStreamName reads a NUL-terminated stream name padded to a
// 4-byte boundary, ECMA-335 §II.24.2.2.
func readPaddedStreamName(c *cursor) (string, error) {
	start := c.pos
	nameEnd := -1
	for nameEnd < 0 {
		b, err := c.u8()
		if err != nil {
			return "", fmt.Errorf("pereader: unterminated stream name: %w", err)
		}
		if b == 0 {
			nameEnd = c.pos - 1
		}
	}
	for (c.pos-start)%4 != 0 {
		if err := c.skip(1); err != nil {
			return "", err
		}
	}
	return string(c.data[start:nameEnd]), nil
}
