package domain

// LocaleOutput is the merged mapping for one (locale, file) pair. Keys keep their
// insertion order so written files are stable across runs.
type LocaleOutput struct {
	OutputKey
	Merged    int
	Conflicts int

	keys   []string
	values map[string]string
}

// NewLocaleOutput creates an empty output
func NewLocaleOutput(key OutputKey) *LocaleOutput {
	return &LocaleOutput{
		OutputKey: key,
		values:    make(map[string]string),
	}
}

// Set stores value under key, appending key if it is new
func (o *LocaleOutput) Set(key, value string) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Get returns the value stored under key
func (o *LocaleOutput) Get(key string) (string, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Keys returns the keys in insertion order
func (o *LocaleOutput) Keys() []string {
	keys := make([]string, len(o.keys))
	copy(keys, o.keys)
	return keys
}

// Len returns the number of keys
func (o *LocaleOutput) Len() int {
	return len(o.keys)
}

// Values returns a copy of the mapping
func (o *LocaleOutput) Values() map[string]string {
	m := make(map[string]string, len(o.values))
	for k, v := range o.values {
		m[k] = v
	}
	return m
}

// Stats returns the merge counters of this output
func (o *LocaleOutput) Stats() FileStats {
	return FileStats{
		FileName:  o.FileName,
		Locale:    o.Locale,
		Merged:    o.Merged,
		Conflicts: o.Conflicts,
	}
}
