package toolset

// Static is a Toolset assembled from literal values. Builtins that need no
// state are declared this way.
type Static struct {
	ToolsetName    string
	ToolsetPurpose string
	ToolList       []Tool
}

var _ Toolset = (*Static)(nil)

func (s *Static) Name() string    { return s.ToolsetName }
func (s *Static) Purpose() string { return s.ToolsetPurpose }
func (s *Static) Tools() []Tool   { return s.ToolList }
