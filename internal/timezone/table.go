package timezone

// locationTimezones is the city/region/country lookup table. Country entries
// fall back to the timezone of the commercial capital. Keys are lowercase.
var locationTimezones = map[string]string{
	// Major cities - North America
	"new york":      "America/New_York",
	"nyc":           "America/New_York",
	"manhattan":     "America/New_York",
	"brooklyn":      "America/New_York",
	"los angeles":   "America/Los_Angeles",
	"la":            "America/Los_Angeles",
	"san francisco": "America/Los_Angeles",
	"sf":            "America/Los_Angeles",
	"chicago":       "America/Chicago",
	"houston":       "America/Chicago",
	"toronto":       "America/Toronto",
	"vancouver":     "America/Vancouver",
	"montreal":      "America/Toronto",

	// Major cities - Europe
	"london":     "Europe/London",
	"paris":      "Europe/Paris",
	"berlin":     "Europe/Berlin",
	"madrid":     "Europe/Madrid",
	"rome":       "Europe/Rome",
	"amsterdam":  "Europe/Amsterdam",
	"stockholm":  "Europe/Stockholm",
	"oslo":       "Europe/Oslo",
	"copenhagen": "Europe/Copenhagen",
	"zurich":     "Europe/Zurich",
	"vienna":     "Europe/Vienna",
	"prague":     "Europe/Prague",
	"warsaw":     "Europe/Warsaw",
	"dublin":     "Europe/Dublin",

	// Major cities - Asia Pacific
	"sydney":    "Australia/Sydney",
	"melbourne": "Australia/Melbourne",
	"brisbane":  "Australia/Brisbane",
	"perth":     "Australia/Perth",
	"adelaide":  "Australia/Adelaide",
	"tokyo":     "Asia/Tokyo",
	"seoul":     "Asia/Seoul",
	"shanghai":  "Asia/Shanghai",
	"beijing":   "Asia/Shanghai",
	"hong kong": "Asia/Hong_Kong",
	"singapore": "Asia/Singapore",
	"bangkok":   "Asia/Bangkok",
	"mumbai":    "Asia/Kolkata",
	"delhi":     "Asia/Kolkata",
	"bangalore": "Asia/Kolkata",

	// Countries
	"usa":            "America/New_York",
	"united states":  "America/New_York",
	"canada":         "America/Toronto",
	"uk":             "Europe/London",
	"united kingdom": "Europe/London",
	"england":        "Europe/London",
	"france":         "Europe/Paris",
	"germany":        "Europe/Berlin",
	"spain":          "Europe/Madrid",
	"italy":          "Europe/Rome",
	"netherlands":    "Europe/Amsterdam",
	"sweden":         "Europe/Stockholm",
	"norway":         "Europe/Oslo",
	"denmark":        "Europe/Copenhagen",
	"switzerland":    "Europe/Zurich",
	"austria":        "Europe/Vienna",
	"australia":      "Australia/Sydney",
	"japan":          "Asia/Tokyo",
	"south korea":    "Asia/Seoul",
	"korea":          "Asia/Seoul",
	"china":          "Asia/Shanghai",
	"thailand":       "Asia/Bangkok",
	"india":          "Asia/Kolkata",

	// US states
	"california":     "America/Los_Angeles",
	"new york state": "America/New_York",
	"texas":          "America/Chicago",
	"florida":        "America/New_York",
	"illinois":       "America/Chicago",
	"washington":     "America/Los_Angeles",
	"oregon":         "America/Los_Angeles",
	"nevada":         "America/Los_Angeles",
	"arizona":        "America/Phoenix",
	"colorado":       "America/Denver",
	"utah":           "America/Denver",
	"montana":        "America/Denver",
	"wyoming":        "America/Denver",
	"north dakota":   "America/Chicago",
	"south dakota":   "America/Chicago",
	"nebraska":       "America/Chicago",
	"kansas":         "America/Chicago",
	"oklahoma":       "America/Chicago",
	"minnesota":      "America/Chicago",
	"iowa":           "America/Chicago",
	"missouri":       "America/Chicago",
	"arkansas":       "America/Chicago",
	"louisiana":      "America/Chicago",
	"wisconsin":      "America/Chicago",
	"michigan":       "America/New_York",
	"indiana":        "America/New_York",
	"ohio":           "America/New_York",
	"kentucky":       "America/New_York",
	"tennessee":      "America/Chicago",
	"mississippi":    "America/Chicago",
	"alabama":        "America/Chicago",
	"georgia":        "America/New_York",
	"south carolina": "America/New_York",
	"north carolina": "America/New_York",
	"virginia":       "America/New_York",
	"west virginia":  "America/New_York",
	"maryland":       "America/New_York",
	"delaware":       "America/New_York",
	"new jersey":     "America/New_York",
	"connecticut":    "America/New_York",
	"rhode island":   "America/New_York",
	"massachusetts":  "America/New_York",
	"vermont":        "America/New_York",
	"new hampshire":  "America/New_York",
	"maine":          "America/New_York",
	"pennsylvania":   "America/New_York",

	// Canadian provinces
	"ontario":               "America/Toronto",
	"quebec":                "America/Toronto",
	"british columbia":      "America/Vancouver",
	"alberta":               "America/Edmonton",
	"saskatchewan":          "America/Regina",
	"manitoba":              "America/Winnipeg",
	"new brunswick":         "America/Moncton",
	"nova scotia":           "America/Halifax",
	"prince edward island":  "America/Halifax",
	"newfoundland":          "America/St_Johns",
	"yukon":                 "America/Whitehorse",
	"northwest territories": "America/Yellowknife",
	"nunavut":               "America/Iqaluit",
}
