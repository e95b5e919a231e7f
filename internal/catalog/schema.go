package catalog

// Each package has up to two versions: the installed one and the
// installation candidate.
const schema = `
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS versions (
    package TEXT NOT NULL,
    state TEXT NOT NULL CHECK (state IN ('installed', 'candidate')),
    version TEXT NOT NULL,
    arch TEXT NOT NULL,
    license TEXT,
    repo_id TEXT,
    modaliases TEXT,
    PRIMARY KEY (package, state)
);

CREATE TABLE IF NOT EXISTS depends (
    package TEXT NOT NULL,
    state TEXT NOT NULL,
    capability TEXT NOT NULL,
    position INTEGER NOT NULL,
    PRIMARY KEY (package, state, position),
    FOREIGN KEY (package, state) REFERENCES versions(package, state) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS provides (
    package TEXT NOT NULL,
    state TEXT NOT NULL,
    capability TEXT NOT NULL,
    position INTEGER NOT NULL,
    PRIMARY KEY (package, state, position),
    FOREIGN KEY (package, state) REFERENCES versions(package, state) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_versions_package ON versions(package);
CREATE INDEX IF NOT EXISTS idx_provides_capability ON provides(capability);
`
