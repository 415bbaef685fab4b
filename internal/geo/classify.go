// Package geo holds the coarse country classifier used for aggregate
// statistics and the point encoders shared by the project store.
package geo

// Unknown is returned for points outside every listed bounding box.
const Unknown = "Unknown"

// Box is an axis-aligned latitude/longitude rectangle, bounds inclusive.
type Box struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// Contains reports whether the point lies inside the box.
func (b Box) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// Country is a label with one or more boxes.
type Country struct {
	Name  string
	Boxes []Box
}

// Contains reports whether any of the country's boxes holds the point.
func (c Country) Contains(lat, lng float64) bool {
	for _, b := range c.Boxes {
		if b.Contains(lat, lng) {
			return true
		}
	}
	return false
}

// Continent groups countries under an enclosing box.
type Continent struct {
	Name      string
	Box       Box
	Countries []Country
}

// Classifier maps coordinates to country labels by ordered bounding-box
// rules. Continents are tried in order; inside a matching continent the
// first matching country wins. A continent without a matching country
// falls through to the next continent.
//
// The boxes are rough rectangles and overlap along borders. Overlaps resolve
// to whichever rule is listed first. This is not a geocoder.
type Classifier struct {
	continents []Continent
}

// NewClassifier creates a classifier over the given rule table.
func NewClassifier(continents []Continent) *Classifier {
	return &Classifier{continents: continents}
}

// Classify returns the country label for a point, or Unknown.
func (c *Classifier) Classify(lat, lng float64) string {
	for _, cont := range c.continents {
		if !cont.Box.Contains(lat, lng) {
			continue
		}
		for _, country := range cont.Countries {
			if country.Contains(lat, lng) {
				return country.Name
			}
		}
	}
	return Unknown
}

// ContinentOf returns the continent whose country rule matched the point,
// or Unknown.
func (c *Classifier) ContinentOf(lat, lng float64) string {
	for _, cont := range c.continents {
		if !cont.Box.Contains(lat, lng) {
			continue
		}
		for _, country := range cont.Countries {
			if country.Contains(lat, lng) {
				return cont.Name
			}
		}
	}
	return Unknown
}

// Classify classifies a point with the active classifier, DefaultRules
// unless SetDefault replaced it.
func Classify(lat, lng float64) string {
	return active.Load().Classify(lat, lng)
}

// ContinentOf resolves a point's continent with the active classifier.
func ContinentOf(lat, lng float64) string {
	return active.Load().ContinentOf(lat, lng)
}

func box(minLat, maxLat, minLng, maxLng float64) Box {
	return Box{MinLat: minLat, MaxLat: maxLat, MinLng: minLng, MaxLng: maxLng}
}

func country(name string, boxes ...Box) Country {
	return Country{Name: name, Boxes: boxes}
}

// DefaultRules is the built-in rule table. Order is significant: smaller
// countries are listed ahead of larger neighbours whose boxes cover them.
var DefaultRules = []Continent{
	{
		Name: "Europe",
		Box:  box(34, 72, -25, 45),
		Countries: []Country{
			country("Iceland", box(63.3, 66.6, -24.6, -13.5)),
			country("Portugal", box(36.96, 42.15, -9.50, -6.19)),
			country("Spain", box(36.00, 43.79, -9.30, 3.32)),
			country("Ireland", box(51.42, 55.39, -10.48, -6.00)),
			country("United Kingdom", box(49.96, 58.64, -8.17, 1.75)),
			country("Switzerland", box(45.82, 47.81, 5.96, 10.49)),
			country("Belgium", box(49.50, 51.50, 2.54, 6.41)),
			country("Netherlands", box(50.75, 53.55, 3.36, 7.23)),
			country("Denmark", box(54.56, 57.75, 8.08, 12.69)),
			country("Czech Republic", box(48.55, 51.06, 12.09, 18.86)),
			country("Germany", box(47.27, 55.06, 5.87, 15.04)),
			country("Austria", box(46.37, 49.02, 9.53, 17.16)),
			country("Poland", box(49.00, 54.84, 14.12, 24.15)),
			country("Hungary", box(45.74, 48.59, 16.11, 22.90)),
			country("Romania", box(43.62, 48.27, 20.26, 29.69)),
			country("Italy", box(36.62, 47.09, 6.63, 18.52)),
			country("Greece", box(34.80, 41.75, 19.37, 28.25)),
			country("France", box(42.33, 51.09, -4.79, 8.23)),
			country("Sweden", box(55.34, 69.06, 11.11, 24.17)),
			country("Finland", box(59.81, 70.09, 20.55, 31.59)),
			country("Norway", box(57.97, 71.19, 4.65, 31.08)),
			country("Ukraine", box(44.40, 52.40, 22.10, 40.20)),
			country("Russia", box(41.20, 81.90, 27.30, 180)),
		},
	},
	{
		Name: "Africa",
		Box:  box(-35, 38, -18, 52),
		Countries: []Country{
			country("Egypt", box(22.0, 31.7, 24.7, 36.9)),
			country("Morocco", box(27.7, 35.9, -13.2, -1.0)),
			country("Nigeria", box(4.3, 13.9, 2.7, 14.7)),
			country("Ghana", box(4.7, 11.2, -3.3, 1.2)),
			country("Ethiopia", box(3.4, 14.9, 33.0, 48.0)),
			country("Uganda", box(-1.5, 4.2, 29.6, 35.0)),
			country("Kenya", box(-4.7, 5.0, 33.9, 41.9)),
			country("Tanzania", box(-11.7, -1.0, 29.3, 40.4)),
			country("South Africa", box(-34.8, -22.1, 16.5, 32.9)),
		},
	},
	{
		Name: "Asia",
		Box:  box(-11, 82, 25, 180),
		Countries: []Country{
			country("Turkey", box(35.8, 42.1, 26.0, 44.8)),
			country("Israel", box(29.5, 33.3, 34.3, 35.9)),
			country("Iran", box(25.1, 39.8, 44.0, 63.3)),
			country("Saudi Arabia", box(16.3, 32.2, 34.5, 55.7)),
			country("South Korea", box(33.1, 38.6, 124.6, 131.9)),
			country("Japan", box(24.0, 45.6, 122.9, 153.99)),
			country("Nepal", box(26.3, 30.4, 80.0, 88.2)),
			country("Bangladesh", box(20.7, 26.6, 88.0, 92.7)),
			country("Vietnam", box(8.6, 23.4, 102.1, 109.5)),
			country("Thailand", box(5.6, 20.5, 97.3, 105.6)),
			country("Philippines", box(4.6, 21.1, 116.9, 126.6)),
			country("Indonesia", box(-11.0, 6.0, 95.0, 141.0)),
			country("India", box(6.7, 35.5, 68.1, 97.4)),
			country("China", box(18.2, 53.6, 73.5, 134.8)),
			country("Russia", box(41.2, 81.9, 27.3, 180)),
		},
	},
	{
		Name: "North America",
		Box:  box(5, 84, -170, -10),
		Countries: []Country{
			country("United States",
				box(24.5, 49.4, -125.0, -66.9),
				box(51.0, 71.5, -170.0, -130.0),
			),
			country("Mexico", box(14.5, 32.7, -118.4, -86.7)),
			country("Cuba", box(19.8, 23.3, -85.0, -74.1)),
			country("Costa Rica", box(8.0, 11.2, -85.95, -82.55)),
			country("Panama", box(7.2, 9.65, -83.05, -77.17)),
			country("Canada", box(41.7, 83.1, -141.0, -52.6)),
			country("Greenland", box(59.7, 83.7, -73.0, -11.0)),
		},
	},
	{
		Name: "South America",
		Box:  box(-56, 13, -82, -34),
		Countries: []Country{
			country("Chile", box(-55.98, -17.5, -75.64, -66.96)),
			country("Argentina", box(-55.06, -21.78, -73.56, -53.64)),
			country("Ecuador", box(-5.0, 1.45, -81.0, -75.2)),
			country("Peru", box(-18.35, -0.04, -81.33, -68.67)),
			country("Colombia", box(-4.23, 12.44, -79.0, -66.87)),
			country("Brazil", box(-33.75, 5.27, -73.99, -34.79)),
		},
	},
	{
		Name: "Oceania",
		Box:  box(-50, 0, 110, 180),
		Countries: []Country{
			country("Papua New Guinea", box(-11.7, -1.3, 140.8, 156.0)),
			country("Australia", box(-43.7, -10.6, 113.3, 153.6)),
			country("New Zealand", box(-47.3, -34.4, 166.4, 178.6)),
		},
	},
}
