package models

type Config struct {
	DefaultProfile string         `yaml:"default_profile"`
	Profiles       []Profile      `yaml:"profiles"`
	Reports        ReportDefaults `yaml:"reports"`
	Cache          CacheConfig    `yaml:"cache"`
	Server         ServerConfig   `yaml:"server"`
	Packs          []QueryPack    `yaml:"query_packs"`
}

// Profile is a named Snowflake connection. Role and warehouse are part of
// the connection configuration, never switched per query.
type Profile struct {
	Name      string `yaml:"name"`
	Account   string `yaml:"account"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password,omitempty"` // empty when stored in the OS keychain
	Role      string `yaml:"role"`
	Warehouse string `yaml:"warehouse"`
	Database  string `yaml:"database"`
	Schema    string `yaml:"schema"`
}

// ReportDefaults seeds query flags when the user does not pass them.
type ReportDefaults struct {
	StartDate string   `yaml:"start_date"` // YYYY-MM-DD, inclusive
	EndDate   string   `yaml:"end_date"`   // YYYY-MM-DD, inclusive
	Countries []string `yaml:"countries"`  // empty means the "all" sentinel
	Format    string   `yaml:"format"`     // table, json or csv
	Limit     int      `yaml:"limit"`
}

// CacheConfig configures the optional Redis result cache.
type CacheConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db"`
	TTL      string `yaml:"ttl"` // Go duration string, e.g. "5m"
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// QueryPack is a git repository of .sql report templates that can be run
// next to the built-in catalog.
type QueryPack struct {
	Name   string `yaml:"name"`
	GitURL string `yaml:"git_url"`
	Branch string `yaml:"branch"`
	Path   string `yaml:"path"` // local checkout path
}

// GetProfile returns the named profile, or the default profile when name is
// empty.
func (c *Config) GetProfile(name string) (Profile, bool) {
	if name == "" {
		name = c.DefaultProfile
	}
	for _, p := range c.Profiles {
		if p.Name == name {
			return p, true
		}
	}
	return Profile{}, false
}

// UpsertProfile replaces the profile with the same name or appends it.
func (c *Config) UpsertProfile(p Profile) {
	for i := range c.Profiles {
		if c.Profiles[i].Name == p.Name {
			c.Profiles[i] = p
			return
		}
	}
	c.Profiles = append(c.Profiles, p)
}

// GetPack returns the named query pack.
func (c *Config) GetPack(name string) (QueryPack, bool) {
	for _, p := range c.Packs {
		if p.Name == name {
			return p, true
		}
	}
	return QueryPack{}, false
}
