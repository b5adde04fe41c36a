package domain

// ItineraryRequest is the document payload sent to either generation pathway.
// The validate tags are the blocking rules checked by internal/validation.
type ItineraryRequest struct {
	Customer       Customer        `json:"customer"       yaml:"customer"`
	Trip           Trip            `json:"trip"           yaml:"trip"`
	Itinerary      Itinerary       `json:"itinerary"      yaml:"itinerary"`
	Flights        []Flight        `json:"flights"        yaml:"flights"`
	Hotels         []Hotel         `json:"hotels"         yaml:"hotels"`
	Payment        Payment         `json:"payment"        yaml:"payment"`
	Config         DocumentConfig  `json:"config"         yaml:"config"`
	CompanyInfo    CompanyInfo     `json:"companyInfo"    yaml:"companyInfo"`
	ImportantNotes []ImportantNote `json:"importantNotes" yaml:"importantNotes"`
	ScopeOfService []ServiceScope  `json:"scopeOfService" yaml:"scopeOfService"`
	Inclusions     []Inclusion     `json:"inclusions"     yaml:"inclusions"`
	VisaDetails    VisaDetails     `json:"visaDetails"    yaml:"visaDetails"`
}

// Customer holds the traveller the itinerary is prepared for.
type Customer struct {
	Name  string `json:"name"  yaml:"name"  validate:"notblank,min=2"`
	Email string `json:"email" yaml:"email" validate:"required,email"`
	Phone string `json:"phone" yaml:"phone" validate:"notblank"`
}

// Trip holds the headline trip details.
type Trip struct {
	Title         string `json:"title"         yaml:"title"         validate:"notblank,min=3"`
	Destination   string `json:"destination"   yaml:"destination"   validate:"notblank"`
	StartDate     string `json:"startDate"     yaml:"startDate"     validate:"required,isodate"`
	EndDate       string `json:"endDate"       yaml:"endDate"       validate:"required,isodate"`
	Duration      string `json:"duration"      yaml:"duration"`
	Travelers     int    `json:"travelers"     yaml:"travelers"     validate:"gte=1"`
	DepartureFrom string `json:"departureFrom" yaml:"departureFrom"`
}

type Itinerary struct {
	Days []Day `json:"days" yaml:"days" validate:"min=1,dive"`
}

// Day is a single day of the trip.
type Day struct {
	DayNumber  int        `json:"dayNumber"  yaml:"dayNumber"`
	Date       string     `json:"date"       yaml:"date"`
	Title      string     `json:"title"      yaml:"title"`
	Activities []Activity `json:"activities" yaml:"activities" validate:"dive"`
	Transfers  []Transfer `json:"transfers"  yaml:"transfers"`
	Flights    []Flight   `json:"flights"    yaml:"flights"`
	Image      string     `json:"image"      yaml:"image"`
	Timeline   []Timeline `json:"timeline"   yaml:"timeline"`
}

type Activity struct {
	ID          string  `json:"id"          yaml:"id"`
	Name        string  `json:"name"        yaml:"name"        validate:"notblank"`
	Description string  `json:"description" yaml:"description"`
	Location    string  `json:"location"    yaml:"location"`
	Duration    string  `json:"duration"    yaml:"duration"`
	Price       float64 `json:"price"       yaml:"price"       validate:"gte=0"`
	Image       string  `json:"image"       yaml:"image"`
	Type        string  `json:"type"        yaml:"type"`
	Time        string  `json:"time"        yaml:"time"`
}

type Transfer struct {
	ID          string  `json:"id"          yaml:"id"`
	Type        string  `json:"type"        yaml:"type"`
	From        string  `json:"from"        yaml:"from"`
	To          string  `json:"to"          yaml:"to"`
	PickupTime  string  `json:"pickupTime"  yaml:"pickupTime"`
	DropoffTime string  `json:"dropoffTime" yaml:"dropoffTime"`
	Duration    string  `json:"duration"    yaml:"duration"`
	Price       float64 `json:"price"       yaml:"price"`
	Capacity    int     `json:"capacity"    yaml:"capacity"`
}

type Flight struct {
	ID           string  `json:"id"           yaml:"id"`
	Date         string  `json:"date"         yaml:"date"`
	Airline      string  `json:"airline"      yaml:"airline"`
	FlightNumber string  `json:"flightNumber" yaml:"flightNumber"`
	Route        string  `json:"route"        yaml:"route"`
	From         string  `json:"from"         yaml:"from"`
	To           string  `json:"to"           yaml:"to"`
	Departure    string  `json:"departure"    yaml:"departure"`
	Arrival      string  `json:"arrival"      yaml:"arrival"`
	Class        string  `json:"class"        yaml:"class"`
	Price        float64 `json:"price"        yaml:"price"`
}

type Hotel struct {
	City          string  `json:"city"          yaml:"city"`
	CheckIn       string  `json:"checkIn"       yaml:"checkIn"`
	CheckOut      string  `json:"checkOut"      yaml:"checkOut"`
	Nights        int     `json:"nights"        yaml:"nights"`
	HotelName     string  `json:"hotelName"     yaml:"hotelName"`
	RoomType      string  `json:"roomType"      yaml:"roomType"`
	PricePerNight float64 `json:"pricePerNight" yaml:"pricePerNight"`
}

// Payment is the payment plan printed at the end of the document.
type Payment struct {
	TotalAmount   string        `json:"totalAmount"             yaml:"totalAmount"`
	TCS           string        `json:"tcs"                     yaml:"tcs"`
	AdvanceAmount string        `json:"advanceAmount,omitempty" yaml:"advanceAmount"`
	BalanceAmount string        `json:"balanceAmount,omitempty" yaml:"balanceAmount"`
	Status        string        `json:"status,omitempty"        yaml:"status"`
	Installments  []Installment `json:"installments"            yaml:"installments"`
}

type Installment struct {
	Name    string `json:"installment" yaml:"installment"`
	Amount  string `json:"amount"      yaml:"amount"`
	DueDate string `json:"dueDate"     yaml:"dueDate"`
}

type Timeline struct {
	Time       string   `json:"time"       yaml:"time"`
	Activities []string `json:"activities" yaml:"activities"`
}

// DocumentConfig controls which sections are rendered and how.
type DocumentConfig struct {
	IncludeFlights    bool           `json:"includeFlights"    yaml:"includeFlights"`
	IncludeHotels     bool           `json:"includeHotels"     yaml:"includeHotels"`
	IncludeActivities bool           `json:"includeActivities" yaml:"includeActivities"`
	IncludePayments   bool           `json:"includePayments"   yaml:"includePayments"`
	PageFormat        string         `json:"pageFormat"        yaml:"pageFormat"`
	Orientation       string         `json:"orientation"       yaml:"orientation"`
	CustomBranding    CustomBranding `json:"customBranding"    yaml:"customBranding"`
}

type CustomBranding struct {
	PrimaryColor string `json:"primaryColor" yaml:"primaryColor"`
	AccentColor  string `json:"accentColor"  yaml:"accentColor"`
	LogoURL      string `json:"logoUrl"      yaml:"logoUrl"`
	CompanyName  string `json:"companyName"  yaml:"companyName"`
}

type CompanyInfo struct {
	Name             string           `json:"name"             yaml:"name"`
	RegisteredOffice RegisteredOffice `json:"registeredOffice" yaml:"registeredOffice"`
	Contact          ContactInfo      `json:"contact"          yaml:"contact"`
	Logo             string           `json:"logo"             yaml:"logo"`
}

type RegisteredOffice struct {
	Address string `json:"address" yaml:"address"`
	City    string `json:"city"    yaml:"city"`
	State   string `json:"state"   yaml:"state"`
	Country string `json:"country" yaml:"country"`
}

type ContactInfo struct {
	Phone string `json:"phone" yaml:"phone"`
	Email string `json:"email" yaml:"email"`
}

type ImportantNote struct {
	Point   string `json:"point"   yaml:"point"`
	Details string `json:"details" yaml:"details"`
}

type ServiceScope struct {
	Service string `json:"service" yaml:"service"`
	Details string `json:"details" yaml:"details"`
}

type Inclusion struct {
	Category string `json:"category" yaml:"category"`
	Count    int    `json:"count"    yaml:"count"`
	Details  string `json:"details"  yaml:"details"`
	Status   string `json:"status"   yaml:"status"`
}

type VisaDetails struct {
	VisaType       string `json:"visaType"       yaml:"visaType"`
	Validity       string `json:"validity"       yaml:"validity"`
	ProcessingDate string `json:"processingDate" yaml:"processingDate"`
}
