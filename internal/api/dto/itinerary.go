package dto

import "time"

type BuildItineraryRequest struct {
	InitialDate time.Time `json:"initial_date"`
	FinalDate   time.Time `json:"final_date"`
	Optimize    bool      `json:"optimize"`
}

type AddStopRequest struct {
	WorkOrderID string `json:"work_order_id"`
}

type StopResponse struct {
	Position  int               `json:"position"`
	Late      bool              `json:"late"`
	WorkOrder WorkOrderResponse `json:"work_order"`
}

type ItineraryResponse struct {
	ID              string         `json:"id"`
	InitialDate     time.Time      `json:"initial_date"`
	FinalDate       time.Time      `json:"final_date"`
	Finished        bool           `json:"finished"`
	Progress        string         `json:"progress"`
	TotalDistanceKm float64        `json:"total_distance_km"`
	Stops           []StopResponse `json:"stops"`
}

type CustomerResponse struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

type ListCustomerResponse struct {
	Customers []CustomerResponse `json:"customers"`
}
