package courier

// Wire types for the FedEx REST APIs (rate, ship, track, cancel). Only the
// fields the hub reads or writes are modeled.

// FedExCredentials is the connection credential blob for FedEx.
type FedExCredentials struct {
	ClientID      string `json:"clientId"`
	ClientSecret  string `json:"clientSecret"`
	AccountNumber string `json:"accountNumber"`
}

// fedexTokenResponse is the OAuth client-credentials grant response.
type fedexTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type fedexAddress struct {
	StreetLines         []string `json:"streetLines"`
	City                string   `json:"city"`
	StateOrProvinceCode string   `json:"stateOrProvinceCode,omitempty"`
	PostalCode          string   `json:"postalCode"`
	CountryCode         string   `json:"countryCode"`
	Residential         bool     `json:"residential,omitempty"`
}

type fedexContact struct {
	PersonName  string `json:"personName,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

type fedexParty struct {
	Contact fedexContact `json:"contact"`
	Address fedexAddress `json:"address"`
}

type fedexWeight struct {
	Units string  `json:"units"`
	Value float64 `json:"value"`
}

type fedexDimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Units  string  `json:"units"`
}

type fedexPackageLineItem struct {
	Weight     fedexWeight      `json:"weight"`
	Dimensions *fedexDimensions `json:"dimensions,omitempty"`
}

// --- rate ---

type fedexRateRequest struct {
	AccountNumber     fedexAccountNumber     `json:"accountNumber"`
	RequestedShipment fedexRequestedShipment `json:"requestedShipment"`
}

type fedexAccountNumber struct {
	Value string `json:"value"`
}

type fedexRequestedShipment struct {
	Shipper                   fedexParty             `json:"shipper"`
	Recipient                 fedexParty             `json:"recipient"`
	ShipDateStamp             string                 `json:"shipDateStamp,omitempty"`
	PickupType                string                 `json:"pickupType"`
	ServiceType               string                 `json:"serviceType,omitempty"`
	PackagingType             string                 `json:"packagingType,omitempty"`
	RateRequestType           []string               `json:"rateRequestType,omitempty"`
	RequestedPackageLineItems []fedexPackageLineItem `json:"requestedPackageLineItems"`
	LabelSpecification        *fedexLabelSpec        `json:"labelSpecification,omitempty"`
	ShippingChargesPayment    *fedexPayment          `json:"shippingChargesPayment,omitempty"`
	CustomerReferences        []fedexReference       `json:"customerReferences,omitempty"`
}

type fedexLabelSpec struct {
	ImageType         string `json:"imageType"`
	LabelStockType    string `json:"labelStockType"`
	LabelFormatType   string `json:"labelFormatType,omitempty"`
	ReturnedDispositionDetail string `json:"returnedDispositionDetail,omitempty"`
}

type fedexPayment struct {
	PaymentType string `json:"paymentType"`
}

type fedexReference struct {
	CustomerReferenceType string `json:"customerReferenceType"`
	Value                 string `json:"value"`
}

type fedexRateResponse struct {
	Output struct {
		RateReplyDetails []struct {
			ServiceType string `json:"serviceType"`
			ServiceName string `json:"serviceName"`
			Commit      struct {
				DateDetail struct {
					DayFormat string `json:"dayFormat"`
				} `json:"dateDetail"`
			} `json:"commit"`
			RatedShipmentDetails []struct {
				TotalNetCharge float64 `json:"totalNetCharge"`
				Currency       string  `json:"currency"`
			} `json:"ratedShipmentDetails"`
		} `json:"rateReplyDetails"`
	} `json:"output"`
}

// --- ship ---

type fedexShipRequest struct {
	AccountNumber     fedexAccountNumber     `json:"accountNumber"`
	LabelResponseOptions string              `json:"labelResponseOptions"`
	RequestedShipment fedexRequestedShipment `json:"requestedShipment"`
}

type fedexShipResponse struct {
	Output struct {
		TransactionShipments []struct {
			MasterTrackingNumber string `json:"masterTrackingNumber"`
			ShipmentDocuments    []struct {
				ContentType   string `json:"contentType"`
				DocType       string `json:"docType"`
				EncodedLabel  string `json:"encodedLabel"`
				URL           string `json:"url"`
			} `json:"shipmentDocuments"`
			PieceResponses []struct {
				NetChargeAmount  float64 `json:"netChargeAmount"`
				CurrencyCode     string  `json:"currencyCode"`
				PackageDocuments []struct {
					ContentType  string `json:"contentType"`
					DocType      string `json:"docType"`
					EncodedLabel string `json:"encodedLabel"`
					URL          string `json:"url"`
				} `json:"packageDocuments"`
			} `json:"pieceResponses"`
		} `json:"transactionShipments"`
		Alerts []fedexAlert `json:"alerts"`
	} `json:"output"`
}

type fedexAlert struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --- track ---

type fedexTrackRequest struct {
	IncludeDetailedScans bool `json:"includeDetailedScans"`
	TrackingInfo         []struct {
		TrackingNumberInfo struct {
			TrackingNumber string `json:"trackingNumber"`
		} `json:"trackingNumberInfo"`
	} `json:"trackingInfo"`
}

type fedexTrackResponse struct {
	Output struct {
		CompleteTrackResults []struct {
			TrackingNumber string `json:"trackingNumber"`
			TrackResults   []struct {
				LatestStatusDetail struct {
					Code          string `json:"code"`
					DerivedCode   string `json:"derivedCode"`
					StatusByLocale string `json:"statusByLocale"`
					ScanLocation  struct {
						City        string `json:"city"`
						CountryCode string `json:"countryCode"`
					} `json:"scanLocation"`
				} `json:"latestStatusDetail"`
				ScanEvents []struct {
					Date             string `json:"date"`
					EventType        string `json:"eventType"`
					EventDescription string `json:"eventDescription"`
					ScanLocation     struct {
						City        string `json:"city"`
						CountryCode string `json:"countryCode"`
					} `json:"scanLocation"`
				} `json:"scanEvents"`
			} `json:"trackResults"`
		} `json:"completeTrackResults"`
	} `json:"output"`
}

// --- cancel ---

type fedexCancelRequest struct {
	AccountNumber  fedexAccountNumber `json:"accountNumber"`
	TrackingNumber string             `json:"trackingNumber"`
}

type fedexCancelResponse struct {
	Output struct {
		CancelledShipment bool `json:"cancelledShipment"`
	} `json:"output"`
}
