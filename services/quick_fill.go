package services

// QuickFillSample returns the canned form data a Quick Fill populates. Each
// call returns fresh slices so callers may mutate the result.
func QuickFillSample() InspectionForm {
	env := EnvironmentalReading{Temperature: 22, Humidity: 65, AirCirculation: true}
	env.DewPoint = DewPoint(env.Temperature, env.Humidity)

	areas := []AffectedArea{
		{
			RoomType:       "Kitchen",
			Length:         4.5,
			Width:          3.2,
			Materials:      []string{"Vinyl", "Plasterboard", "Cabinetry"},
			WaterSource:    "Burst flexi hose under sink",
			HoursSinceLoss: 12,
		},
		{
			RoomType:       "Living Room",
			Length:         6,
			Width:          4,
			Materials:      []string{"Carpet", "Underlay", "Skirting"},
			WaterSource:    "Burst flexi hose under sink",
			HoursSinceLoss: 12,
		},
	}
	for i := range areas {
		areas[i].Area = Area(areas[i].Length, areas[i].Width)
	}

	return InspectionForm{
		PropertyAddress:  "42 Wallaby Way, Sydney NSW",
		PropertyPostcode: "2000",
		TechnicianName:   "Sample Technician",
		Environmental:    env,
		MoistureReadings: []MoistureReading{
			{Location: "Kitchen wall", SurfaceType: "Plasterboard", Level: 24.5, Depth: DepthSurface},
			{Location: "Living room floor", SurfaceType: "Carpet", Level: 18.2, Depth: DepthSurface},
			{Location: "Kitchen subfloor", SurfaceType: "Timber", Level: 16.8, Depth: DepthSubsurface},
		},
		AffectedAreas: areas,
		ScopeItems: []ScopeItem{
			{ItemType: "extract_water", Description: "Extract standing water", Selected: true},
			{ItemType: "remove_carpet", Description: "Remove and dispose of wet carpet and underlay", Selected: true},
			{ItemType: "antimicrobial", Description: "Apply antimicrobial treatment", Selected: true},
			{ItemType: "install_dehumidifier", Description: "Install dehumidification equipment", Selected: true},
		},
		Photos:    []Photo{},
		Equipment: []EquipmentItem{},
	}
}
