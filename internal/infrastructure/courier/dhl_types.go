package courier

// Wire types for the MyDHL Express REST API. Only the fields the hub reads
// or writes are modeled.

// DHLCredentials is the connection credential blob for DHL Express.
type DHLCredentials struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	AccountNumber string `json:"accountNumber"`
}

type dhlAddress struct {
	PostalCode   string `json:"postalCode"`
	CityName     string `json:"cityName"`
	CountryCode  string `json:"countryCode"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
}

type dhlContact struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone,omitempty"`
}

type dhlParty struct {
	PostalAddress  dhlAddress `json:"postalAddress"`
	ContactInformation dhlContact `json:"contactInformation"`
}

type dhlPackage struct {
	Weight     float64 `json:"weight"`
	Dimensions struct {
		Length float64 `json:"length"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	} `json:"dimensions"`
}

// --- rates ---

type dhlRateRequest struct {
	CustomerDetails struct {
		ShipperDetails  dhlAddress `json:"shipperDetails"`
		ReceiverDetails dhlAddress `json:"receiverDetails"`
	} `json:"customerDetails"`
	Accounts    []dhlAccount `json:"accounts"`
	PlannedShippingDateAndTime string `json:"plannedShippingDateAndTime,omitempty"`
	UnitOfMeasurement string       `json:"unitOfMeasurement"`
	Packages          []dhlPackage `json:"packages"`
}

type dhlAccount struct {
	TypeCode string `json:"typeCode"`
	Number   string `json:"number"`
}

type dhlRateResponse struct {
	Products []struct {
		ProductName string `json:"productName"`
		ProductCode string `json:"productCode"`
		TotalPrice  []struct {
			CurrencyType  string  `json:"currencyType"`
			PriceCurrency string  `json:"priceCurrency"`
			Price         float64 `json:"price"`
		} `json:"totalPrice"`
		DeliveryCapabilities struct {
			EstimatedDeliveryDateAndTime string `json:"estimatedDeliveryDateAndTime"`
		} `json:"deliveryCapabilities"`
	} `json:"products"`
}

// --- shipments ---

type dhlShipmentRequest struct {
	PlannedShippingDateAndTime string       `json:"plannedShippingDateAndTime"`
	ProductCode                string       `json:"productCode"`
	Accounts                   []dhlAccount `json:"accounts"`
	CustomerDetails            struct {
		ShipperDetails  dhlParty `json:"shipperDetails"`
		ReceiverDetails dhlParty `json:"receiverDetails"`
	} `json:"customerDetails"`
	Content struct {
		Packages          []dhlPackage `json:"packages"`
		IsCustomsDeclarable bool       `json:"isCustomsDeclarable"`
		Description       string       `json:"description"`
		UnitOfMeasurement string       `json:"unitOfMeasurement"`
	} `json:"content"`
	CustomerReferences []struct {
		Value string `json:"value"`
	} `json:"customerReferences,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type dhlShipmentResponse struct {
	ShipmentTrackingNumber string `json:"shipmentTrackingNumber"`
	Documents              []struct {
		ImageFormat string `json:"imageFormat"`
		Content     string `json:"content"`
		TypeCode    string `json:"typeCode"`
	} `json:"documents"`
	ShipmentCharges []struct {
		CurrencyType string  `json:"currencyType"`
		Currency     string  `json:"currency"`
		Price        float64 `json:"price"`
	} `json:"shipmentCharges"`
}

// --- tracking ---

type dhlTrackingResponse struct {
	Shipments []struct {
		ShipmentTrackingNumber string `json:"shipmentTrackingNumber"`
		Status                 string `json:"status"`
		Events                 []struct {
			Date        string `json:"date"`
			Time        string `json:"time"`
			TypeCode    string `json:"typeCode"`
			Description string `json:"description"`
			ServiceArea []struct {
				Description string `json:"description"`
			} `json:"serviceArea"`
		} `json:"events"`
	} `json:"shipments"`
}
