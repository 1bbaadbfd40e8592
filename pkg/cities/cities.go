package cities

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/levenlabs/go-lflag"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/common"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/log"
	"golang.org/x/text/encoding/charmap"
)

const (
	// DefaultCity is preselected when it is present in the directory.
	DefaultCity = "Middlesbrough, GB"
	// DefaultLimit is how many of the most populous cities are kept.
	DefaultLimit = 5000

	defaultSource = "https://raw.githubusercontent.com/ogatech4real/smart-energy-optimiser/main/worldcities.csv"
)

// ErrMissingColumns is returned when the CSV lacks city, iso2 or population.
var ErrMissingColumns = errors.New("cities csv is missing required columns")

var requiredColumns = []string{"city", "iso2", "population"}

// City is one row of the cities directory.
type City struct {
	Name       string
	ISO2       string
	Population float64
}

// DisplayName returns "City, CC".
func (c City) DisplayName() string {
	return c.Name + ", " + c.ISO2
}

// Directory is a read-only list of selectable locations.
type Directory struct {
	cities      []City
	byName      map[string]City
	defaultName string
}

// Configured sets up the city directory based on flags. If the source cannot
// be loaded the directory only contains the default city.
func Configured() *Directory {
	source := lflag.String("cities-source", defaultSource, "URL or file path of the world cities CSV")
	limit := DefaultLimit
	lflag.JSON(&limit, "cities-limit", DefaultLimit, "Number of most populous cities to offer")
	defaultCity := lflag.String("default-city", DefaultCity, "Location preselected when no location is given (City, CC)")

	d := &Directory{}
	lflag.Do(func() {
		ctx := context.Background()
		cs, err := Load(ctx, *source, common.HTTPClient(30*time.Second), limit)
		if err != nil {
			log.Ctx(ctx).ErrorContext(
				ctx,
				"failed to load cities, falling back to the default city",
				slog.String("source", *source),
				slog.Any("error", err),
			)
			cs = fallbackCities(*defaultCity)
		}
		*d = *NewDirectory(cs, *defaultCity)
		log.Ctx(ctx).InfoContext(ctx, "loaded cities", slog.Int("count", len(d.cities)), slog.String("default", d.defaultName))
	})
	return d
}

func fallbackCities(display string) []City {
	name, iso2, ok := strings.Cut(display, ",")
	if !ok {
		return nil
	}
	return []City{{Name: strings.TrimSpace(name), ISO2: strings.TrimSpace(iso2)}}
}

// NewDirectory builds a directory from cities already in display order. The
// default is defaultCity if present, otherwise the first city.
func NewDirectory(cs []City, defaultCity string) *Directory {
	d := &Directory{
		cities: make([]City, 0, len(cs)),
		byName: make(map[string]City, len(cs)),
	}
	for _, c := range cs {
		name := c.DisplayName()
		// keep the most populous of duplicate names
		if _, ok := d.byName[name]; ok {
			continue
		}
		d.byName[name] = c
		d.cities = append(d.cities, c)
	}
	if _, ok := d.byName[defaultCity]; ok {
		d.defaultName = defaultCity
	} else if len(d.cities) > 0 {
		d.defaultName = d.cities[0].DisplayName()
	}
	return d
}

// Load reads the CSV from an http(s) URL or a local file and parses it.
func Load(ctx context.Context, source string, client *http.Client, limit int) ([]City, error) {
	var r io.ReadCloser
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch cities: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("cities source returned status: %d", resp.StatusCode)
		}
		r = resp.Body
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("failed to open cities file: %w", err)
		}
		r = f
	}
	defer r.Close()
	return Parse(r, limit)
}

// Parse decodes the cities CSV, sorts it by population descending and keeps
// the first limit rows. Malformed rows are skipped. Input that is not valid
// UTF-8 is decoded as ISO-8859-1.
func Parse(r io.Reader, limit int) ([]City, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read cities csv: %w", err)
	}
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(raw) {
		raw, err = charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode cities csv: %w", err)
		}
	}

	cr := csv.NewReader(bytes.NewReader(raw))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read cities csv header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	cityIdx, isoIdx, popIdx := idx["city"], idx["iso2"], idx["population"]
	maxIdx := max(cityIdx, isoIdx, popIdx)

	var cs []City
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read cities csv: %w", err)
		}
		if len(record) <= maxIdx {
			continue
		}
		c := City{
			Name: strings.TrimSpace(record[cityIdx]),
			ISO2: strings.TrimSpace(record[isoIdx]),
		}
		if c.Name == "" || c.ISO2 == "" {
			continue
		}
		// rows without a population sort last
		if p, err := strconv.ParseFloat(strings.TrimSpace(record[popIdx]), 64); err == nil {
			c.Population = p
		}
		cs = append(cs, c)
	}

	sort.SliceStable(cs, func(i, j int) bool {
		return cs[i].Population > cs[j].Population
	})
	if limit > 0 && len(cs) > limit {
		cs = cs[:limit]
	}
	return cs, nil
}

// Names returns the display names in directory order.
func (d *Directory) Names() []string {
	names := make([]string, 0, len(d.cities))
	for _, c := range d.cities {
		names = append(names, c.DisplayName())
	}
	return names
}

// Default returns the preselected display name, or "" for an empty directory.
func (d *Directory) Default() string {
	return d.defaultName
}

// Lookup finds a city by display name.
func (d *Directory) Lookup(displayName string) (City, bool) {
	c, ok := d.byName[displayName]
	return c, ok
}

// Len returns the number of cities.
func (d *Directory) Len() int {
	return len(d.cities)
}

// LocationParam turns "City, CC" into the "City,CC" query form used by the
// weather provider.
func LocationParam(displayName string) (string, error) {
	city, country, ok := strings.Cut(displayName, ", ")
	city = strings.TrimSpace(city)
	country = strings.TrimSpace(country)
	if !ok || city == "" || country == "" {
		return "", fmt.Errorf("invalid location %q: expected \"City, CC\"", displayName)
	}
	return city + "," + country, nil
}
