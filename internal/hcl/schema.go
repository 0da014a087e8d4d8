package hcl

// The structures below mirror the matrix file layout one-to-one. They are
// decoded with gohcl and then translated into the config model; nothing
// outside this package sees them.

// rootSchema is the top-level structure of a matrix file.
type rootSchema struct {
	Release *releaseSchema  `hcl:"release,block"`
	Storage *storageSchema  `hcl:"storage,block"`
	Targets []*targetSchema `hcl:"target,block"`
}

// releaseSchema is the optional `release` block.
type releaseSchema struct {
	URL          string `hcl:"url,optional"`
	Draft        *bool  `hcl:"draft,optional"`
	AllowUpdates *bool  `hcl:"allow_updates,optional"`
}

// storageSchema is the optional `storage` block.
type storageSchema struct {
	Backend string `hcl:"backend,optional"`
	Bucket  string `hcl:"bucket,optional"`
	Prefix  string `hcl:"prefix,optional"`
}

// targetSchema is one `target "<platform>" "<arch>"` block.
type targetSchema struct {
	Platform  string            `hcl:"platform,label"`
	Arch      string            `hcl:"arch,label"`
	Timeout   string            `hcl:"timeout,optional"`
	Env       map[string]string `hcl:"env,optional"`
	Steps     []*stepSchema     `hcl:"step,block"`
	Artifacts []string          `hcl:"artifacts"`
}

// stepSchema is one `step "<name>"` block. Exactly one of `run` and
// `archive` must be present.
type stepSchema struct {
	Name    string         `hcl:"name,label"`
	Run     []string       `hcl:"run,optional"`
	Archive *archiveSchema `hcl:"archive,block"`
}

// archiveSchema is the `archive` block of an archive step.
type archiveSchema struct {
	Sources []string `hcl:"sources"`
	Output  string   `hcl:"output"`
}
