package geo

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// Location is the subset of GeoIP data attached to visit events.
type Location struct {
	Country string
	Region  string
	City    string
}

// Locator resolves an IP address to a location. Implementations must be
// safe for concurrent use.
type Locator interface {
	Lookup(ip string) (*Location, error)
	Close() error
}

// MaxMindLocator implements Locator using a MaxMind GeoLite2 database.
type MaxMindLocator struct {
	reader *geoip2.Reader
}

// NewMaxMindLocator opens the GeoLite2 database at dbPath.
func NewMaxMindLocator(dbPath string) (*MaxMindLocator, error) {
	reader, err := geoip2.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open GeoIP database: %w", err)
	}
	return &MaxMindLocator{reader: reader}, nil
}

// Lookup returns the location for an IP address.
func (m *MaxMindLocator) Lookup(ip string) (*Location, error) {
	parsedIP := net.ParseIP(ip)
	if parsedIP == nil {
		return nil, fmt.Errorf("invalid IP address: %s", ip)
	}

	record, err := m.reader.City(parsedIP)
	if err != nil {
		return nil, err
	}

	loc := &Location{
		Country: record.Country.IsoCode,
		City:    record.City.Names["en"],
	}
	if len(record.Subdivisions) > 0 {
		loc.Region = record.Subdivisions[0].Names["en"]
	}
	return loc, nil
}

// Close closes the GeoIP database.
func (m *MaxMindLocator) Close() error {
	if m.reader != nil {
		return m.reader.Close()
	}
	return nil
}
