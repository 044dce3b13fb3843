// Copyright 2026 Pelagic Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package knowledge

// builtinCorpus is the ocean science knowledge shipped with the server.
// It is seeded on every open; user documents from the corpus directory
// extend it but never replace it.
var builtinCorpus = []Doc{
	// The Argo program.
	{
		ID:       "argo_overview",
		Category: "argo_program",
		Content: "Argo is a global array of over 4,000 free-drifting profiling floats that measure " +
			"temperature, salinity, and increasingly oxygen and other biogeochemical properties " +
			"of the upper 2,000 meters of the ocean. Argo is the largest source of subsurface " +
			"ocean observations ever collected. The data are freely available in near real-time.",
	},
	{
		ID:       "argo_floats",
		Category: "argo_program",
		Content: "Argo floats are autonomous instruments that drift with ocean currents at a parking " +
			"depth (typically 1,000m). Every 10 days, a float descends to 2,000m then ascends " +
			"to the surface, measuring temperature and salinity along the way. At the surface, " +
			"data is transmitted via satellite before the float descends again. Each float " +
			"operates for 4-5 years on battery power.",
	},
	{
		ID:       "argo_history",
		Category: "argo_program",
		Content: "The Argo program began in 1999 as an international collaboration. It reached its " +
			"target of 3,000 floats in 2007 and has since expanded. Over 30 countries contribute " +
			"to deploying and maintaining the array. Argo is a key component of the Global Ocean " +
			"Observing System (GOOS) and provides critical data for climate research, weather " +
			"forecasting, and ocean state estimation.",
	},
	{
		ID:       "argo_coverage",
		Category: "argo_program",
		Content: "Argo floats cover most of the global ocean between 60S and 60N latitude. Coverage " +
			"is sparser in ice-covered polar regions, marginal seas, and near coasts. The array " +
			"provides approximately one profile per 3-degree square every 10 days.",
	},
	{
		ID:       "argo_data_access",
		Category: "argo_program",
		Content: "Argo data is freely available from two Global Data Assembly Centres (GDACs): " +
			"one in France (Coriolis) and one in the US. Data is available in NetCDF format " +
			"and can be accessed via FTP, HTTP, ERDDAP servers, or through tools like argopy " +
			"(Python) and argodata (R). Real-time data is available within 24 hours; " +
			"delayed-mode quality-controlled data within 12 months.",
	},
	{
		ID:       "argo_wmo_ids",
		Category: "argo_program",
		Content: "Every Argo float is identified by a unique WMO number, a seven-digit identifier " +
			"assigned through the World Meteorological Organization (for example, 6902746). " +
			"The WMO ID appears in every profile the float reports and is the key used to " +
			"look up a float's trajectory, metadata, and measurement history.",
	},
	{
		ID:       "argo_deep",
		Category: "argo_program",
		Content: "Deep Argo floats extend measurements below the standard 2,000m limit, profiling " +
			"to 4,000m or 6,000m depending on the model. The deep ocean stores most of the " +
			"excess heat from climate change, and Deep Argo fills the observational gap left " +
			"by the core array. Deep pilot arrays operate in several basins.",
	},
	{
		ID:       "argo_bgc",
		Category: "argo_program",
		Content: "Biogeochemical-Argo (BGC-Argo) extends the core array with sensors for dissolved " +
			"oxygen, nitrate, pH, chlorophyll-a, suspended particles, and downwelling light. " +
			"About 30% of active floats carry an oxygen sensor. BGC data supports studies of " +
			"ocean deoxygenation, acidification, and biological productivity.",
	},

	// The four measured variables and their quality control.
	{
		ID:       "var_temperature",
		Category: "variables",
		Content: "Ocean temperature (TEMP) is measured in degrees Celsius. Surface temperatures " +
			"range from about -2 degC in polar regions to 30+ degC in tropical waters. " +
			"Temperature generally decreases with depth, with the steepest gradient in the " +
			"thermocline (typically 200-1000m depth). Deep ocean temperatures are typically " +
			"1-4 degC. Temperature is crucial for understanding ocean heat content, " +
			"circulation, and climate change.",
	},
	{
		ID:       "var_salinity",
		Category: "variables",
		Content: "Practical salinity (PSAL) is measured in PSU (Practical Salinity Units). Open " +
			"ocean salinity typically ranges from 33 to 37 PSU. Higher values occur in " +
			"evaporation-dominated regions (e.g., Mediterranean Sea, ~38-39 PSU) and lower " +
			"values near river mouths and in regions of heavy rainfall. Salinity affects " +
			"water density and is key to identifying water masses and understanding ocean " +
			"circulation.",
	},
	{
		ID:       "var_pressure",
		Category: "variables",
		Content: "Sea pressure (PRES) is measured in decibars (dbar), which approximately equals " +
			"depth in meters. Standard Argo floats profile from 0 to 2,000 dbar. Pressure " +
			"increases roughly linearly with depth at about 1 dbar per meter, and serves as " +
			"the vertical coordinate for ocean profiles.",
	},
	{
		ID:       "var_oxygen",
		Category: "variables",
		Content: "Dissolved oxygen (DOXY) is measured in micromoles per kilogram (umol/kg). Surface " +
			"oxygen is typically near saturation (200-300 umol/kg). Oxygen minimum zones at " +
			"intermediate depths (200-1000m) can have values below 20 umol/kg, particularly " +
			"in the Eastern Pacific and Northern Indian Ocean.",
	},
	{
		ID:       "var_qc",
		Category: "variables",
		Content: "Argo quality control (QC) flags indicate data reliability. Flag 1 means good " +
			"data, flag 2 means probably good, flag 3 means probably bad, flag 4 means bad " +
			"data, and flag 9 indicates missing values. Real-time QC applies automatic tests; " +
			"delayed-mode QC involves expert review and statistical comparison with " +
			"climatology. For reliable analysis, use only data with QC flags 1 or 2.",
	},

	// Ocean concepts.
	{
		ID:       "concept_thermocline",
		Category: "ocean_concepts",
		Content: "The thermocline is a layer of water where temperature changes rapidly with depth. " +
			"In the ocean, the permanent thermocline exists between roughly 200m and 1,000m " +
			"depth, separating warm surface waters from cold deep waters. A seasonal " +
			"thermocline develops in summer in the upper 50-200m and erodes in winter due to " +
			"surface cooling and wind mixing. The thermocline acts as a barrier to vertical " +
			"mixing.",
	},
	{
		ID:       "concept_halocline",
		Category: "ocean_concepts",
		Content: "The halocline is a layer where salinity changes rapidly with depth. It is most " +
			"prominent in polar regions and near river outflows where fresh water overlies " +
			"saltier water. In the Arctic Ocean, the halocline insulates sea ice from warmer " +
			"Atlantic water below. In tropical and subtropical oceans, the halocline is " +
			"typically weaker than the thermocline.",
	},
	{
		ID:       "concept_mixed_layer",
		Category: "ocean_concepts",
		Content: "The mixed layer is the near-surface layer of the ocean where temperature, " +
			"salinity, and density are nearly uniform due to wind-driven turbulent mixing. " +
			"Mixed layer depth varies from less than 20m in calm tropical waters to over " +
			"500m in winter storm regions. It shoals in summer and deepens in winter. The " +
			"mixed layer depth matters for air-sea interaction and biological productivity.",
	},
	{
		ID:       "concept_water_masses",
		Category: "ocean_concepts",
		Content: "Water masses are large bodies of water with distinct temperature-salinity (T-S) " +
			"characteristics formed at the ocean surface. Examples include Antarctic Bottom " +
			"Water (very cold, moderate salinity), North Atlantic Deep Water (cold, high " +
			"salinity), and Mediterranean Water (warm, very high salinity). Water masses can " +
			"be identified on T-S diagrams and tracked as they spread through the ocean " +
			"interior.",
	},

	// Ocean basins.
	{
		ID:       "basin_pacific",
		Category: "ocean_basins",
		Content: "The Pacific Ocean is the largest and deepest ocean basin, covering about " +
			"165 million square kilometers. It contains the deepest point on Earth (Mariana " +
			"Trench, ~11,000m). The Pacific features the El Nino-Southern Oscillation (ENSO), " +
			"the most important mode of climate variability. The western Pacific warm pool " +
			"has the warmest surface temperatures globally (>28 degC).",
	},
	{
		ID:       "basin_atlantic",
		Category: "ocean_basins",
		Content: "The Atlantic Ocean is the second-largest ocean, known for the Atlantic Meridional " +
			"Overturning Circulation (AMOC), a major system of currents including the Gulf " +
			"Stream. The AMOC transports warm water northward and cold deep water southward. " +
			"The Atlantic has higher average salinity than other oceans due to net evaporation " +
			"and limited connection to lower-salinity Pacific waters.",
	},
	{
		ID:       "basin_indian",
		Category: "ocean_basins",
		Content: "The Indian Ocean is the third-largest ocean, strongly influenced by the Asian " +
			"monsoon system. Seasonal reversal of winds drives large changes in surface " +
			"currents, temperature, and biological productivity. The Arabian Sea experiences " +
			"intense upwelling and one of the world's most prominent oxygen minimum zones.",
	},
	{
		ID:       "basin_southern",
		Category: "ocean_basins",
		Content: "The Southern Ocean surrounds Antarctica and is home to the Antarctic Circumpolar " +
			"Current (ACC), the largest ocean current by volume transport. It is a critical " +
			"region for global ocean circulation, CO2 uptake, and Antarctic Bottom Water " +
			"formation. Argo coverage is improving but remains challenging due to sea ice.",
	},

	// Working with the data.
	{
		ID:       "concept_profile",
		Category: "data_concepts",
		Content: "An ocean profile is a vertical measurement of water properties (temperature, " +
			"salinity, etc.) at a single location and time. Argo floats measure profiles " +
			"from 2,000m depth to the surface every 10 days. A profile typically contains " +
			"measurements at 70-100 depth levels. Profiles are the fundamental unit of Argo " +
			"data and can be analyzed individually or aggregated for regional studies.",
	},
	{
		ID:       "concept_data_modes",
		Category: "data_concepts",
		Content: "Argo data comes in three modes. Real-time (R) data passes automatic quality " +
			"tests and is distributed within 24 hours. Adjusted (A) data is real-time data " +
			"with calibration adjustments applied. Delayed-mode (D) data has been reviewed " +
			"by an expert, usually within 12 months, and carries the most reliable values. " +
			"The data mode is recorded per profile alongside the QC flags.",
	},
	{
		ID:       "concept_climatology",
		Category: "data_concepts",
		Content: "Ocean climatology refers to long-term average conditions, typically computed " +
			"over 30+ years. The World Ocean Atlas (WOA) is a widely used climatology " +
			"product. Anomalies are deviations from climatological averages and are used to " +
			"identify unusual conditions. Argo data now spans more than two decades and " +
			"contributes significantly to modern ocean climatologies.",
	},
	{
		ID:       "concept_enso",
		Category: "data_concepts",
		Content: "El Nino and La Nina are phases of the El Nino-Southern Oscillation (ENSO), " +
			"characterized by anomalous warming (El Nino) or cooling (La Nina) of the " +
			"eastern equatorial Pacific. ENSO affects global weather patterns, marine " +
			"ecosystems, and ocean heat distribution. Argo floats are crucial for monitoring " +
			"subsurface temperature changes that precede ENSO events.",
	},
	{
		ID:       "query_tips",
		Category: "data_concepts",
		Content: "Effective Argo queries restrict the search: pick one variable, a region of a " +
			"few degrees, and a date range of weeks to months. Basin-scale queries over long " +
			"periods cover millions of measurements and are better answered with statistics " +
			"than raw data. For a single float, query by WMO ID. Depths are specified in " +
			"meters (equivalently dbar) between 0 and 2,000.",
	},
}
