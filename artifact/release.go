package artifact

// Release is the xray release archive: where it comes from and which entry
// of it is the executable.
type Release struct {
	*Fetcher
	ExecutableName string
}

func NewRelease(f *Fetcher) *Release {
	return &Release{Fetcher: f, ExecutableName: DefaultExecutableName}
}

// Extract unpacks the executable from archive to dst and removes the archive.
func (r *Release) Extract(archive, dst string) error {
	name := r.ExecutableName
	if name == "" {
		name = DefaultExecutableName
	}
	return Extract(archive, name, dst)
}
