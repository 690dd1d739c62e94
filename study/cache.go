package study

import (
	"io/ioutil"
	"os"
	"sort"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
)

// Key is one trial of a study
type Key struct {
	H      float64 `json:"h"`
	Degree int     `json:"degree"`
	Family string  `json:"family"`
	Method string  `json:"method"`
}

type Result struct {
	RelErr float64 `json:"relErr"`
	NDofs  int     `json:"ndofs"`
}

// record flattens a key and its result into one YAML mapping
type record struct {
	Key
	Result
}

// Cache keeps the results of earlier trials in a YAML file
type Cache struct {
	Path    string
	results map[Key]Result
}

// LoadCache reads the cache at path, a missing file is an empty cache
func LoadCache(path string) (c *Cache, err error) {
	c = &Cache{Path: path, results: make(map[Key]Result)}
	var data []byte
	if data, err = ioutil.ReadFile(path); err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, err
	}
	var records []record
	if err = yaml.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrapf(err, "reading cache %s", path)
	}
	for _, r := range records {
		c.results[r.Key] = r.Result
	}
	return
}

func (c *Cache) Get(k Key) (r Result, ok bool) {
	r, ok = c.results[k]
	return
}

func (c *Cache) Put(k Key, r Result) { c.results[k] = r }

func (c *Cache) Len() int { return len(c.results) }

// Save writes the cache sorted by method, family, degree and decreasing h
func (c *Cache) Save() (err error) {
	records := make([]record, 0, len(c.results))
	for k, r := range c.results {
		records = append(records, record{k, r})
	}
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i].Key, records[j].Key
		switch {
		case a.Method != b.Method:
			return a.Method < b.Method
		case a.Family != b.Family:
			return a.Family < b.Family
		case a.Degree != b.Degree:
			return a.Degree < b.Degree
		}
		return a.H > b.H
	})
	var data []byte
	if data, err = yaml.Marshal(records); err != nil {
		return
	}
	return ioutil.WriteFile(c.Path, data, 0644)
}
