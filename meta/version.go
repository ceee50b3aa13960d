package meta

const (
	// ProtocolVersion is the NETDUMP wire revision spoken by default.
	ProtocolVersion    = 1
	ProtocolMinVersion = 0
)

// Following variables are filled in by the build.
var (
	Version   string
	GitCommit string
	BuildDate string
)

type VersionOutput struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildDate string `json:"buildDate"`

	ProtocolVersion    int `json:"protocolVersion"`
	ProtocolMinVersion int `json:"protocolMinVersion"`
}

func GetVersion() *VersionOutput {
	return &VersionOutput{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,

		ProtocolVersion:    ProtocolVersion,
		ProtocolMinVersion: ProtocolMinVersion,
	}
}
