package source

// Memory is a Source held entirely in memory. Details are raw XML keyed by
// type and member; Files are content files keyed the same way.
type Memory struct {
	Man     Manifest
	Details map[string]string
	Files   map[string][]File
}

// NewMemory returns an empty in-memory source.
func NewMemory() *Memory {
	return &Memory{
		Man:     NewManifest(),
		Details: make(map[string]string),
		Files:   make(map[string][]File),
	}
}

func memoryKey(metadataType, member string) string {
	return metadataType + "/" + member
}

// AddMember declares a member with optional XML detail and content files.
func (m *Memory) AddMember(metadataType, member, detail string, files ...File) {
	m.Man.Add(metadataType, member)
	if detail != "" {
		m.Details[memoryKey(metadataType, member)] = detail
	}
	if len(files) > 0 {
		m.Files[memoryKey(metadataType, member)] = files
	}
}

// Manifest returns the declared members.
func (m *Memory) Manifest() (Manifest, error) {
	return m.Man, nil
}

// Detail parses the stored XML of a member.
func (m *Memory) Detail(metadataType, member string) (Detail, error) {
	raw, ok := m.Details[memoryKey(metadataType, member)]
	if !ok {
		return Detail{}, notFound(metadataType, member)
	}
	return ParseDetail([]byte(raw))
}

// Content returns the stored files of a member.
func (m *Memory) Content(metadataType, member string) ([]File, error) {
	files, ok := m.Files[memoryKey(metadataType, member)]
	if !ok {
		return nil, notFound(metadataType, member)
	}
	return files, nil
}
