// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"fmt"
	"strings"
)

// Group names used by the static field sets. The posting wizard shows each
// group on its own step.
const (
	GroupBasic     = "basic"
	GroupSpecs     = "specs"
	GroupCondition = "condition"
	GroupContact   = "contact"
)

// Reference-data sources named by static select fields.
const (
	SourceVehicleMakes  = "vehicle-makes"
	SourceVehicleModels = "vehicle-models"
	SourceVehicleColors = "vehicle-colors"
	SourceDeviceBrands  = "device-brands"
	SourceDeviceModels  = "device-models"
	SourcePropertyTypes = "property-types"
	SourceEPCRatings    = "epc-ratings"
	SourceJobCategories = "job-categories"
	SourceContractTypes = "contract-types"
	SourceCPCodes       = "cp-codes"
)

// StaticFields returns the compiled field set for a specialized category
// type. Generic categories have no static fields.
func StaticFields(t CategoryType) []FieldDefinition {
	switch t {
	case Vehicle:
		return vehicleFields
	case RealEstate:
		return realEstateFields
	case Electronics:
		return electronicsFields
	case Fashion:
		return fashionFields
	case Jobs:
		return jobsFields
	case Generic:
		return nil
	default:
		panic(fmt.Sprintf("catalog: unknown category type %d", int(t)))
	}
}

func ptr(v float64) *float64 { return &v }

// opts builds options whose labels are the humanised values.
func opts(values ...string) []Option {
	out := make([]Option, len(values))
	for i, v := range values {
		out[i] = Option{Value: v, Label: humanize(v)}
	}
	return out
}

func humanize(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// triState is a yes/no question whose answer may be left unset.
func triState(name, label, group string) FieldDefinition {
	return FieldDefinition{
		Name: name, Type: FieldSelect, Label: label, Group: group,
		Options:  []Option{{Value: "yes", Label: "Yes"}, {Value: "no", Label: "No"}},
		TriState: true,
	}
}

func checkbox(name, label, group string, cond *Condition) FieldDefinition {
	return FieldDefinition{Name: name, Type: FieldCheckbox, Label: label, Group: group, Conditional: cond}
}

func integer(name, label, group string, min, max float64) FieldDefinition {
	return FieldDefinition{
		Name: name, Type: FieldNumber, Label: label, Group: group,
		Min: ptr(min), Max: ptr(max), Step: ptr(1), Integer: true,
	}
}

func reference(name, label, group, source string, required bool) FieldDefinition {
	return FieldDefinition{Name: name, Type: FieldSelect, Label: label, Group: group, Source: source, Required: required}
}

var vehicleFields = []FieldDefinition{
	reference("make_id", "Make", GroupBasic, SourceVehicleMakes, true),
	reference("model_id", "Model", GroupBasic, SourceVehicleModels, true),
	integer("year", "Year", GroupBasic, 1900, 2100),
	{Name: "generation_id", Type: FieldText, Label: "Generation", Group: GroupBasic},
	{Name: "body_type", Type: FieldSelect, Label: "Body type", Group: GroupBasic,
		Options: opts("sedan", "hatchback", "wagon", "suv", "coupe", "convertible", "minivan", "pickup", "van")},
	{Name: "fuel_type", Type: FieldSelect, Label: "Fuel", Group: GroupBasic,
		Options: opts("petrol", "diesel", "hybrid", "plugin_hybrid", "electric", "lpg", "cng")},
	reference("color_id", "Color", GroupBasic, SourceVehicleColors, false),

	{Name: "mileage", Type: FieldNumber, Label: "Mileage", Group: GroupSpecs, Unit: "km", Min: ptr(0), Max: ptr(2000000), Step: ptr(1), Integer: true},
	{Name: "engine_volume", Type: FieldNumber, Label: "Engine volume", Group: GroupSpecs, Unit: "l", Min: ptr(0), Max: ptr(10), Step: ptr(0.1)},
	integer("power_hp", "Power", GroupSpecs, 0, 2000),
	{Name: "transmission", Type: FieldSelect, Label: "Transmission", Group: GroupSpecs,
		Options: opts("manual", "automatic", "robot", "cvt")},
	{Name: "drive_type", Type: FieldSelect, Label: "Drive", Group: GroupSpecs, Options: opts("fwd", "rwd", "awd")},
	integer("doors", "Doors", GroupSpecs, 2, 6),
	{Name: "seats", Type: FieldRange, Label: "Seats", Group: GroupSpecs, Min: ptr(1), Max: ptr(9), Step: ptr(1), Integer: true},

	triState("customs_cleared", "Customs cleared", GroupCondition),
	triState("under_warranty", "Under warranty", GroupCondition),
	triState("service_history", "Service history", GroupCondition),
	integer("owners_count", "Previous owners", GroupCondition, 0, 20),
	{Name: "vin", Type: FieldText, Label: "VIN", Group: GroupCondition, Validation: "[A-HJ-NPR-Z0-9]{17}", Hidden: true},

	{Name: "additional_phone", Type: FieldText, Label: "Additional phone", Group: GroupContact, Validation: `\+?[0-9 ]{6,20}`},
}

var (
	mobileDevice = OneOf("device_type", "smartphone", "tablet")
	computer     = OneOf("device_type", "laptop", "desktop")
	display      = OneOf("device_type", "monitor", "tv")
	storageHost  = OneOf("device_type", "smartphone", "tablet", "laptop", "desktop")
)

var electronicsFields = []FieldDefinition{
	{Name: "device_type", Type: FieldSelect, Label: "Device type", Group: GroupBasic, Required: true,
		Options: opts("smartphone", "tablet", "laptop", "desktop", "monitor", "tv", "camera", "audio", "console", "watch", "other")},
	reference("brand_id", "Brand", GroupBasic, SourceDeviceBrands, false),
	reference("model_id", "Model", GroupBasic, SourceDeviceModels, false),
	integer("year_manufactured", "Year manufactured", GroupBasic, 1980, 2100),

	{Name: "storage_gb", Type: FieldSelect, Label: "Storage (GB)", Group: GroupSpecs, Conditional: storageHost,
		Options: opts("16", "32", "64", "128", "256", "512", "1024", "2048")},
	{Name: "memory_ram_gb", Type: FieldSelect, Label: "RAM (GB)", Group: GroupSpecs, Conditional: storageHost,
		Options: opts("2", "3", "4", "6", "8", "12", "16", "32", "64")},
	{Name: "battery_health", Type: FieldRange, Label: "Battery health", Group: GroupSpecs, Unit: "%",
		Min: ptr(0), Max: ptr(100), Step: ptr(1), Integer: true, Conditional: mobileDevice},
	{Name: "color", Type: FieldText, Label: "Color", Group: GroupSpecs, Conditional: mobileDevice},
	checkbox("factory_unlocked", "Factory unlocked", GroupSpecs, mobileDevice),
	{Name: "processor", Type: FieldText, Label: "Processor", Group: GroupSpecs, Conditional: computer},
	{Name: "storage_type", Type: FieldSelect, Label: "Storage type", Group: GroupSpecs, Conditional: computer,
		Options: opts("ssd", "hdd", "hybrid", "emmc")},
	{Name: "graphics_card", Type: FieldText, Label: "Graphics card", Group: GroupSpecs, Conditional: computer},
	{Name: "operating_system", Type: FieldText, Label: "Operating system", Group: GroupSpecs, Conditional: computer},
	{Name: "screen_size_inches", Type: FieldNumber, Label: "Screen size", Group: GroupSpecs, Unit: "in",
		Min: ptr(1), Max: ptr(120), Step: ptr(0.1), Conditional: display},
	{Name: "resolution", Type: FieldSelect, Label: "Resolution", Group: GroupSpecs, Conditional: display,
		Options: opts("hd", "full_hd", "qhd", "4k", "8k")},
	{Name: "panel_type", Type: FieldSelect, Label: "Panel", Group: GroupSpecs, Conditional: display,
		Options: opts("lcd", "led", "oled", "qled", "ips", "va")},
	{Name: "refresh_rate_hz", Type: FieldSelect, Label: "Refresh rate (Hz)", Group: GroupSpecs, Conditional: display,
		Options: opts("60", "75", "100", "120", "144", "165", "240")},
	checkbox("smart_tv", "Smart TV", GroupSpecs, Equals("device_type", "tv")),

	checkbox("original_box", "Original box", GroupCondition, nil),
	checkbox("warranty_remaining", "Warranty remaining", GroupCondition, nil),
	checkbox("original_accessories", "Original accessories", GroupCondition, nil),
	{Name: "accessories_included", Type: FieldTextarea, Label: "Accessories included", Group: GroupCondition},
	{Name: "imei", Type: FieldText, Label: "IMEI", Group: GroupCondition, Validation: "[0-9]{15}", Hidden: true},
	{Name: "serial_number", Type: FieldText, Label: "Serial number", Group: GroupCondition, Hidden: true},
}

var rental = Equals("listing_type", "rent")

var realEstateFields = []FieldDefinition{
	reference("property_type_id", "Property type", GroupBasic, SourcePropertyTypes, true),
	{Name: "listing_type", Type: FieldSelect, Label: "Listing type", Group: GroupBasic, Required: true,
		Options: opts("sale", "rent")},
	{Name: "area_sqm", Type: FieldNumber, Label: "Living area", Group: GroupBasic, Unit: "m²", Required: true,
		Min: ptr(1), Max: ptr(100000), Step: ptr(1)},
	{Name: "land_area_sqm", Type: FieldNumber, Label: "Land area", Group: GroupBasic, Unit: "m²", Min: ptr(0), Step: ptr(1)},
	integer("rooms", "Rooms", GroupBasic, 0, 100),
	integer("bedrooms", "Bedrooms", GroupBasic, 0, 50),
	integer("bathrooms", "Bathrooms", GroupBasic, 0, 20),

	reference("epc_rating", "EPC rating", GroupSpecs, SourceEPCRatings, false),
	{Name: "epc_cert_number", Type: FieldText, Label: "EPC certificate", Group: GroupSpecs,
		Placeholder: "YYYYMMDD-NNNNNNN-NN", Validation: `[0-9]{8}-[0-9]{7}-[0-9]{2}`},
	integer("epc_kwh_per_sqm_year", "Energy use (kWh/m²/year)", GroupSpecs, 0, 2000),
	checkbox("double_glazing", "Double glazing", GroupSpecs, nil),
	checkbox("elevator", "Elevator", GroupSpecs, nil),
	checkbox("cellar", "Cellar", GroupSpecs, nil),
	integer("parking_spaces", "Parking spaces", GroupSpecs, 0, 50),
	{Name: "terrace_sqm", Type: FieldNumber, Label: "Terrace", Group: GroupSpecs, Unit: "m²", Min: ptr(0)},
	{Name: "garden_sqm", Type: FieldNumber, Label: "Garden", Group: GroupSpecs, Unit: "m²", Min: ptr(0)},

	{Name: "rent_monthly", Type: FieldNumber, Label: "Monthly rent", Group: GroupCondition, Unit: "EUR",
		Min: ptr(0), Step: ptr(1), Required: true, Conditional: rental},
	{Name: "rent_charges_monthly", Type: FieldNumber, Label: "Monthly charges", Group: GroupCondition, Unit: "EUR",
		Min: ptr(0), Step: ptr(1), Conditional: rental},
	{Name: "deposit_months", Type: FieldNumber, Label: "Deposit (months)", Group: GroupCondition,
		Min: ptr(0), Max: ptr(3), Step: ptr(1), Integer: true, Conditional: rental},
	{Name: "available_from", Type: FieldDate, Label: "Available from", Group: GroupCondition, Conditional: rental},
	{Name: "furnished", Type: FieldSelect, Label: "Furnished", Group: GroupCondition, Conditional: rental,
		Options: opts("unfurnished", "semi_furnished", "fully_furnished")},
	checkbox("pet_friendly", "Pets allowed", GroupCondition, rental),

	{Name: "postcode", Type: FieldText, Label: "Postcode", Group: GroupContact, Required: true, Validation: "[0-9]{4}"},
	{Name: "municipality", Type: FieldText, Label: "Municipality", Group: GroupContact, Required: true},
	{Name: "neighborhood", Type: FieldText, Label: "Neighborhood", Group: GroupContact},
}

// measurement is a garment size in centimetres, shown for clothing only.
func measurement(name, label string) FieldDefinition {
	f := integer(name, label, GroupSpecs, 0, 300)
	f.Conditional = Equals("item_type", "clothing")
	return f
}

var fashionFields = []FieldDefinition{
	{Name: "item_type", Type: FieldSelect, Label: "Item type", Group: GroupBasic, Required: true,
		Options: opts("clothing", "shoes", "accessories", "bags")},
	{Name: "gender", Type: FieldSelect, Label: "Gender", Group: GroupBasic, Options: opts("women", "men", "unisex")},
	{Name: "age_group", Type: FieldSelect, Label: "Age group", Group: GroupBasic,
		Options: opts("baby", "kids", "teens", "adults")},
	{Name: "brand", Type: FieldText, Label: "Brand", Group: GroupBasic},
	{Name: "color", Type: FieldText, Label: "Color", Group: GroupBasic},

	{Name: "size_eu", Type: FieldText, Label: "EU size", Group: GroupSpecs, Conditional: OneOf("item_type", "clothing", "shoes")},
	{Name: "size_uk", Type: FieldText, Label: "UK size", Group: GroupSpecs, Conditional: OneOf("item_type", "clothing", "shoes")},
	{Name: "size_us", Type: FieldText, Label: "US size", Group: GroupSpecs, Conditional: OneOf("item_type", "clothing", "shoes")},
	measurement("measurement_chest", "Chest (cm)"),
	measurement("measurement_waist", "Waist (cm)"),
	measurement("measurement_hips", "Hips (cm)"),
	measurement("measurement_length", "Length (cm)"),
	{Name: "material", Type: FieldText, Label: "Material", Group: GroupSpecs},
	{Name: "pattern", Type: FieldSelect, Label: "Pattern", Group: GroupSpecs,
		Options: opts("solid", "striped", "checked", "floral", "printed", "other")},
	{Name: "season", Type: FieldSelect, Label: "Season", Group: GroupSpecs,
		Options: opts("spring_summer", "autumn_winter", "all_season")},

	checkbox("never_worn", "Never worn", GroupCondition, nil),
	checkbox("original_tags", "Original tags", GroupCondition, nil),
	checkbox("authentic_guaranteed", "Authenticity guaranteed", GroupCondition, OneOf("item_type", "accessories", "bags")),
	{Name: "defects", Type: FieldTextarea, Label: "Defects", Group: GroupCondition},
	{Name: "care_instructions", Type: FieldTextarea, Label: "Care instructions", Group: GroupCondition},
}

var jobsFields = []FieldDefinition{
	{Name: "job_title", Type: FieldText, Label: "Job title", Group: GroupBasic, Required: true},
	reference("job_category_id", "Job category", GroupBasic, SourceJobCategories, true),
	reference("contract_type_id", "Contract type", GroupBasic, SourceContractTypes, true),
	reference("cp_code_id", "Joint committee (CP)", GroupBasic, SourceCPCodes, false),
	{Name: "employment_type", Type: FieldSelect, Label: "Employment", Group: GroupBasic,
		Options: opts("full_time", "part_time", "freelance", "internship")},
	{Name: "experience_level", Type: FieldSelect, Label: "Experience", Group: GroupBasic,
		Options: opts("entry", "junior", "mid", "senior", "lead")},
	{Name: "education_level", Type: FieldSelect, Label: "Education", Group: GroupBasic,
		Options: opts("none", "high_school", "bachelor", "master", "phd")},

	{Name: "work_schedule", Type: FieldMultiselect, Label: "Schedule", Group: GroupSpecs,
		Options: opts("full", "flexible", "shifts", "night", "weekend")},
	{Name: "remote_option", Type: FieldSelect, Label: "Remote work", Group: GroupSpecs,
		Options: opts("none", "hybrid", "full_remote")},
	{Name: "salary_min", Type: FieldNumber, Label: "Salary from", Group: GroupSpecs, Unit: "EUR", Min: ptr(0), Step: ptr(1)},
	{Name: "salary_max", Type: FieldNumber, Label: "Salary to", Group: GroupSpecs, Unit: "EUR", Min: ptr(0), Step: ptr(1)},
	{Name: "salary_type", Type: FieldSelect, Label: "Salary type", Group: GroupSpecs,
		Options: opts("gross", "net", "hourly", "negotiable")},
	{Name: "benefits", Type: FieldMultiselect, Label: "Benefits", Group: GroupSpecs,
		Options: opts("meal_vouchers", "eco_vouchers", "company_car", "hospital_insurance", "pension_plan", "phone")},
	{Name: "languages_required", Type: FieldMultiselect, Label: "Languages", Group: GroupSpecs,
		Options: []Option{{"nl", "Dutch"}, {"fr", "French"}, {"de", "German"}, {"en", "English"}}},

	{Name: "required_skills", Type: FieldTextarea, Label: "Required skills", Group: GroupCondition},
	checkbox("driver_license_required", "Driving licence required", GroupCondition, nil),
	checkbox("work_permit_required", "Work permit required", GroupCondition, nil),
	checkbox("background_check_required", "Background check", GroupCondition, nil),
	{Name: "start_date", Type: FieldDate, Label: "Start date", Group: GroupCondition},
	{Name: "application_deadline", Type: FieldDate, Label: "Application deadline", Group: GroupCondition},

	{Name: "company_name", Type: FieldText, Label: "Company", Group: GroupContact},
	{Name: "company_size", Type: FieldSelect, Label: "Company size", Group: GroupContact,
		Options: opts("startup", "small", "medium", "large", "enterprise")},
	{Name: "company_website", Type: FieldText, Label: "Website", Group: GroupContact, Validation: `https?://\S+`},
	{Name: "hr_contact_name", Type: FieldText, Label: "Contact person", Group: GroupContact},
	{Name: "hr_contact_email", Type: FieldText, Label: "Contact email", Group: GroupContact, Validation: `[^@\s]+@[^@\s]+\.[^@\s]+`},
}

// VehicleOption is an equipment flag offered on the vehicle options step.
// Options with variants store the chosen variant instead of "true".
type VehicleOption struct {
	Category string
	Code     string
	Label    string
	Variants []Option
}

// Key is the option's identity within the options map.
func (o VehicleOption) Key() string {
	return o.Category + "_" + o.Code
}

// VehicleOptions is the catalogue of equipment flags, grouped by category.
var VehicleOptions = []VehicleOption{
	{Category: "comfort", Code: "heated_seats", Label: "Heated seats"},
	{Category: "comfort", Code: "climate_control", Label: "Climate control", Variants: opts("single_zone", "dual_zone", "multi_zone")},
	{Category: "comfort", Code: "cruise_control", Label: "Cruise control", Variants: opts("standard", "adaptive")},
	{Category: "comfort", Code: "keyless_entry", Label: "Keyless entry"},
	{Category: "comfort", Code: "sunroof", Label: "Sunroof", Variants: opts("tilt", "panoramic")},
	{Category: "safety", Code: "abs", Label: "ABS"},
	{Category: "safety", Code: "airbags", Label: "Airbags", Variants: opts("front", "front_side", "full")},
	{Category: "safety", Code: "parking_sensors", Label: "Parking sensors", Variants: opts("rear", "front_rear")},
	{Category: "safety", Code: "rear_camera", Label: "Rear camera"},
	{Category: "safety", Code: "lane_assist", Label: "Lane assist"},
	{Category: "multimedia", Code: "navigation", Label: "Navigation"},
	{Category: "multimedia", Code: "bluetooth", Label: "Bluetooth"},
	{Category: "multimedia", Code: "carplay", Label: "Apple CarPlay / Android Auto"},
	{Category: "exterior", Code: "alloy_wheels", Label: "Alloy wheels", Variants: opts("16", "17", "18", "19", "20")},
	{Category: "exterior", Code: "tow_bar", Label: "Tow bar"},
	{Category: "exterior", Code: "led_headlights", Label: "LED headlights"},
}

// LookupVehicleOption finds an option by its map key.
func LookupVehicleOption(key string) (VehicleOption, bool) {
	for _, o := range VehicleOptions {
		if o.Key() == key {
			return o, true
		}
	}
	return VehicleOption{}, false
}
