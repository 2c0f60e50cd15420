package amadeus

// offersResponse is the body of GET /v2/shopping/flight-offers
type offersResponse struct {
	Data         []flightOffer `json:"data"`
	Dictionaries struct {
		Carriers map[string]string `json:"carriers"`
	} `json:"dictionaries"`
}

type flightOffer struct {
	ID                     string      `json:"id"`
	ValidatingAirlineCodes []string    `json:"validatingAirlineCodes"`
	Itineraries            []itinerary `json:"itineraries"`
	Price                  struct {
		Currency   string `json:"currency"`
		Total      string `json:"total"`
		GrandTotal string `json:"grandTotal"`
	} `json:"price"`
}

type itinerary struct {
	Duration string         `json:"duration"`
	Segments []offerSegment `json:"segments"`
}

type offerSegment struct {
	Departure   offerEndpoint `json:"departure"`
	Arrival     offerEndpoint `json:"arrival"`
	CarrierCode string        `json:"carrierCode"`
	Number      string        `json:"number"`
}

type offerEndpoint struct {
	IATACode string `json:"iataCode"`
	Terminal string `json:"terminal,omitempty"`
	At       string `json:"at"`
}

// scheduleResponse is the body of GET /v2/schedule/flights
type scheduleResponse struct {
	Data []datedFlight `json:"data"`
}

type datedFlight struct {
	ScheduledDepartureDate string `json:"scheduledDepartureDate"`
	FlightDesignator       struct {
		CarrierCode       string `json:"carrierCode"`
		FlightNumber      int    `json:"flightNumber"`
		OperationalSuffix string `json:"operationalSuffix,omitempty"`
	} `json:"flightDesignator"`
	FlightPoints []flightPoint `json:"flightPoints"`
}

type flightPoint struct {
	IATACode  string      `json:"iataCode"`
	Departure *pointEvent `json:"departure,omitempty"`
	Arrival   *pointEvent `json:"arrival,omitempty"`
}

type pointEvent struct {
	Timings  []timing `json:"timings"`
	Terminal *struct {
		Code string `json:"code"`
	} `json:"terminal,omitempty"`
	Gate *struct {
		MainGate string `json:"mainGate"`
	} `json:"gate,omitempty"`
}

type timing struct {
	Qualifier string `json:"qualifier"`
	Value     string `json:"value"`
}

// locationsResponse is the body of GET /v1/reference-data/locations
type locationsResponse struct {
	Data []location `json:"data"`
}

type location struct {
	SubType  string `json:"subType"`
	Name     string `json:"name"`
	IATACode string `json:"iataCode"`
	Address  struct {
		CityName string `json:"cityName"`
		CityCode string `json:"cityCode"`
	} `json:"address"`
}

// errorResponse is the error body shared by all endpoints
type errorResponse struct {
	Errors []struct {
		Status int    `json:"status"`
		Code   int    `json:"code"`
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

func (e *errorResponse) String() string {
	if e == nil || len(e.Errors) == 0 {
		return ""
	}
	first := e.Errors[0]
	if first.Detail != "" {
		return first.Title + ": " + first.Detail
	}
	return first.Title
}
