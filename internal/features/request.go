package features

import (
	"bytes"
	"strconv"

	"github.com/goccy/go-json"
)

// Defaults applied when the optional weather fields are absent.
const (
	DefaultTemperature = 20.0
	DefaultHumidity    = 60.0
	DefaultWeatherCode = 3
)

// Request is one prediction request as sent by clients.
type Request struct {
	Date        string   `json:"fecha"`
	Time        Clock    `json:"hora"`
	Attraction  string   `json:"atraccion"`
	Zone        string   `json:"zona"`
	Temperature *float64 `json:"temperatura,omitempty"`
	Humidity    *float64 `json:"humedad,omitempty"`
	WeatherCode *float64 `json:"codigo_clima,omitempty"`
}

// TemperatureOrDefault returns the temperature in Celsius.
func (r Request) TemperatureOrDefault() float64 {
	if r.Temperature == nil {
		return DefaultTemperature
	}
	return *r.Temperature
}

// HumidityOrDefault returns relative humidity in percent.
func (r Request) HumidityOrDefault() float64 {
	if r.Humidity == nil {
		return DefaultHumidity
	}
	return *r.Humidity
}

// WeatherCodeOrDefault returns the weather code truncated to an integer.
func (r Request) WeatherCodeOrDefault() int {
	if r.WeatherCode == nil {
		return DefaultWeatherCode
	}
	return int(*r.WeatherCode)
}

// Clock is the request's time of day. Clients send either a number of hours
// or a string such as "14:30"; both are kept verbatim and interpreted by
// ParseHour.
type Clock struct {
	Text   string
	Number *float64
}

// ClockText builds a Clock from its string form.
func ClockText(s string) Clock {
	return Clock{Text: s}
}

// ClockHours builds a Clock from a numeric hour.
func ClockHours(h float64) Clock {
	return Clock{Number: &h}
}

// IsZero reports whether no time was supplied.
func (c Clock) IsZero() bool {
	return c.Number == nil && c.Text == ""
}

func (c Clock) String() string {
	if c.Number != nil {
		return strconv.FormatFloat(*c.Number, 'f', -1, 64)
	}
	return c.Text
}

// UnmarshalJSON accepts a JSON string or number. Any other token is kept as
// text so that ParseHour can apply its default instead of failing the request.
func (c *Clock) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*c = Clock{}
	switch {
	case bytes.Equal(data, []byte("null")):
		return nil
	case len(data) > 0 && data[0] == '"':
		return json.Unmarshal(data, &c.Text)
	}
	if v, err := strconv.ParseFloat(string(data), 64); err == nil {
		c.Number = &v
		return nil
	}
	c.Text = string(data)
	return nil
}

// MarshalJSON writes the clock back in the form it was received.
func (c Clock) MarshalJSON() ([]byte, error) {
	if c.Number != nil {
		return json.Marshal(*c.Number)
	}
	return json.Marshal(c.Text)
}
