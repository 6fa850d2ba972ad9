/*
DESCRIPTION
  fields.go maps urSense field names to reading names and field kinds.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package sensor

// fields holds the fields a urSense board may report, keyed by the name
// printed on the serial line.
var fields = map[string]field{
	"usid": {hex, "UNIQUE_ID"},
	"c-id": {hex, "CONFIG_ID"},
	"meid": {unsigned, "MEASUREMENT_ID"},
	"uptm": {days, "UPTIME"},
	"loof": {unitValue, "LOOP_FREQUENCY"},
	"cpuf": {unitValue, "CPU_FREQUENCY"},
	"irqf": {unitValue, "IRQ_FREQUENCY"},
	"meaf": {unitValue, "MEASUREMENT_FREQUENCY"},
	"irqd": {unitValue, "IRQ_DURATION"},
	"mead": {unitValue, "MEASUREMENT_DURATION"},
	"codd": {unitValue, "CODE_DURATION"},
	"vbat": {unitValue, "BATTERY_VOLTAGE"},
	"v-cc": {unitValue, "VCC"},
	"atpr": {unitValue, "RAW_ATMOSPHERIC_PRESSURE"},
	"humi": {percent, "HUMIDITY"},
	"brig": {percent, "BRIGHTNESS"},
	"pirs": {binary, "PIR"},
	"door": {binary, "DOOR"},
	"wndw": {binary, "WINDOW"},
	"swit": {binary, "SWITCH"},
	"lght": {binary, "LIGHT"},
	"sckt": {binary, "SOCKET"},
	"rain": {unitValue, "RAINFALL"},
	"rair": {unitValue, "RAINFALL_RATE"},
	"snow": {unitValue, "SNOWFALL"},
	"snor": {unitValue, "SNOWFALL_RATE"},
	"vflw": {unitValue, "WATERFLOW"},
	"mflw": {unitValue, "MASSFLOW"},
	"wtdp": {unitValue, "WATERDEPTH"},
	"tidp": {unitValue, "TIDEDEPTH"},
	"soil": {percent, "SOIL_MOISTURE"},
	"leaf": {binary, "LEAF_WETNESS"},
	"lfdu": {percent, "LEAF_WETNESS_DURATION"},
	"dirr": {unitValue, "DIRECTION"},
	"dirt": {number, "DIRECTION_TURNS"},
	"wspd": {unitValue, "WIND_SPEED"},
	"clcv": {percent, "CLOUD_COVER"},
	"clht": {unitValue, "CLOUD_HEIGHT"},
	"lcol": {hex, "LIGHT_COLOUR"},
	"solr": {unitValue, "SOLAR_RADIATION"},
	"soli": {unitValue, "SOLAR_INSOLATION"},
	"uvrd": {unitValue, "UV_RADIATION"},
	"uvin": {number, "UV_INDEX"},
	"irrd": {unitValue, "INFRARED"},
	"rdcm": {unitValue, "RADIOACTIVITY_CPM"},
	"rdrd": {unitValue, "RADIOACTIVE_RADIATION"},
	"seis": {percent, "SEISMIC_ACTIVITY"},
	"rich": {number, "RICHTER_SCALE"},
	"acet": {gas, "ACETONE"},
	"airq": {gas, "AIR_QUALITY"},
	"alco": {gas, "ALCOHOL"},
	"ammo": {gas, "AMMONIA"},
	"bnze": {gas, "BENZENE"},
	"bnzi": {gas, "BENZINE"},
	"buta": {gas, "BUTANE"},
	"co2-": {gas, "CARBON_DIOXIDE"},
	"co--": {gas, "CARBON_MONOXIDE"},
	"coal": {gas, "COAL_GAS"},
	"comb": {gas, "COMBUSTIBLE_GASSES"},
	"cng-": {gas, "COMPRESSED_NATURAL_GAS"},
	"etha": {gas, "ETHANOL"},
	"flam": {gas, "FLAMMABLE_GASSES"},
	"form": {gas, "FORMALDEHYDE_GAS"},
	"h2--": {gas, "HYDROGEN_GAS"},
	"h2s-": {gas, "HYDROGEN_SULFIDE_GAS"},
	"lpg-": {gas, "LIQUEFIED_PETROLEUM_GAS"},
	"meth": {gas, "METHANE"},
	"natg": {gas, "NATURAL_GAS"},
	"ozon": {gas, "OZONE"},
	"prop": {gas, "PROPANE"},
	"smok": {gas, "SMOKE"},
	"tolu": {gas, "TOLUENE"},
	"mq-2": {gas, "MQ2"},
	"mq-3": {gas, "MQ3"},
	"mq-4": {gas, "MQ4"},
	"mq-5": {gas, "MQ5"},
	"mq-6": {gas, "MQ6"},
	"mq-7": {gas, "MQ7"},
	"mq-8": {gas, "MQ8"},
	"mq-9": {gas, "MQ9"},
	"q131": {gas, "MQ131"},
	"q135": {gas, "MQ135"},
	"q136": {gas, "MQ136"},
	"q137": {gas, "MQ137"},
	"q138": {gas, "MQ138"},
	"q214": {gas, "MQ214"},
	"q216": {gas, "MQ216"},
	"g811": {gas, "MG811"},
	"q104": {gas, "AQ104"},
	"aq-2": {gas, "AQ2"},
	"aq-3": {gas, "AQ3"},
	"aq-7": {gas, "AQ7"},
	"gsu0": {gas, "GAS_USER_TYPE0"},
	"gsu1": {gas, "GAS_USER_TYPE1"},
	"gsu2": {gas, "GAS_USER_TYPE2"},
	"gsu3": {gas, "GAS_USER_TYPE3"},
	"trxt": {hours, "TIMESINCE_RXT"},
	"tgns": {hours, "TIMESINCE_GNSS"},
	"tdcf": {hours, "TIMESINCE_DCF"},
	"dcfs": {hex, "DCF_STATUS"},
	"tnsc": {unsigned, "TIME_NUM_SET_CLOCK"},
	"tnad": {unsigned, "TIME_NUM_ADJUSTMENTS"},
	"leng": {unitValue, "LENGTH"},
	"mass": {unitValue, "MASS"},
	"tmpk": {unitValue, "TEMPERATURE_K"},
	"amnt": {unitValue, "AMOUNT"},
	"area": {unitValue, "AREA"},
	"volu": {unitValue, "VOLUME"},
	"freq": {unitValue, "FREQUENCY"},
	"wavl": {unitValue, "WAVELENGTH"},
	"engy": {unitValue, "ENERGY"},
	"powr": {unitValue, "POWER"},
	"lnce": {unitValue, "LUMINANCE"},
	"illu": {unitValue, "ILLUMINANCE"},
	"lext": {unitValue, "LUMINOUS_EXITANCE"},
	"lint": {unitValue, "LUMINOUS_INTENSITY"},
	"lflx": {unitValue, "LUMINOUS_FLUX"},
	"legy": {unitValue, "LUMINOUS_ENERGY"},
	"lexp": {unitValue, "LUMINOUS_EXPOSURE"},
	"radi": {unitValue, "RADIOACTIVITY"},
	"ados": {unitValue, "ABSORBED_DOSE"},
	"edos": {unitValue, "EQUIVALENT_DOSE"},
	"cata": {unitValue, "CATALYTIC_ACTIVITY"},
	"entr": {unitValue, "ENTROPY"},
	"info": {unitValue, "INFORMATION_BYTE"},
	"an00": {number, "ANALOGUE00"},
	"an01": {number, "ANALOGUE01"},
	"an02": {number, "ANALOGUE02"},
	"an03": {number, "ANALOGUE03"},
	"an04": {number, "ANALOGUE04"},
	"an05": {number, "ANALOGUE05"},
	"an06": {number, "ANALOGUE06"},
	"an07": {number, "ANALOGUE07"},
	"an08": {number, "ANALOGUE08"},
	"an09": {number, "ANALOGUE09"},
	"an10": {number, "ANALOGUE10"},
	"an11": {number, "ANALOGUE11"},
	"an12": {number, "ANALOGUE12"},
	"an13": {number, "ANALOGUE13"},
	"an14": {number, "ANALOGUE14"},
	"an15": {number, "ANALOGUE15"},
	"dig0": {binary, "DIGITAL0"},
	"dig1": {binary, "DIGITAL1"},
	"dig2": {binary, "DIGITAL2"},
	"dig3": {binary, "DIGITAL3"},
	"uid0": {hex, "UNIQUE_ID0"},
	"uid1": {hex, "UNIQUE_ID1"},
	"airr": {unitValue, "AIR_QUALITY_RESISTANCE"},
	"cput": {unitValue, "CPU_TEMPERATURE"},
	"radt": {unitValue, "RADIO_TEMPERATURE"},
	"rtct": {unitValue, "RTC_TEMPERATURE"},
	"humt": {unitValue, "HUMIDITY_TEMPERATURE"},
	"prst": {unitValue, "PRESSURE_TEMPERATURE"},
	"tpha": {unitValue, "TIMEDIFF_OWN_EXTERNAL"},
	"tpgn": {unitValue, "TIMEDIFF_OWN_GNSS"},
	"tpdc": {unitValue, "TIMEDIFF_OWN_DCF"},
	"dcgn": {unitValue, "TIMEDIFF_DCF_GNSS"},
	"clks": {number, "CLOCK_SKEW"},
	"clka": {number, "CLOCK_AGEING"},
	"tmpc": {unitValue, "TEMPERATURE"},
	"volt": {unitValue, "VOLTAGE"},
	"curr": {unitValue, "AMPERE"},
	"time": {unitValue, "TIME"},
	"ster": {unitValue, "SOLID_ANGLE"},
	"forc": {unitValue, "FORCE"},
	"pres": {unitValue, "PRESSURE"},
	"chrg": {unitValue, "ELECTRIC_CHARGE"},
	"capa": {unitValue, "ELECTRIC_CAPACITANCE"},
	"rest": {unitValue, "RESISTANCE"},
	"irst": {unitValue, "IM_RESISTANCE"},
	"cond": {unitValue, "ELECTRICAL_CONDUCTANCE"},
	"mflx": {unitValue, "MAGNETIC_FLUX"},
	"mfld": {unitValue, "MAGNETIC_FIELD"},
	"indu": {unitValue, "INDUCTANCE"},
	"posi": {unitValue, "POSITION"},
	"velo": {unitValue, "VELOCITY"},
	"acce": {unitValue, "ACCELERATION"},
	"jerk": {unitValue, "JERK"},
	"snap": {unitValue, "SNAP"},
	"angd": {unitValue, "ANGLE_DEG"},
	"angr": {unitValue, "ANGLE"},
	"angt": {number, "ANGLE_TURNS"},
	"avel": {unitValue, "ANGULAR_VELOCITY"},
	"aacc": {unitValue, "ANGULAR_ACCELERATION"},
	"ajrk": {unitValue, "ANGULAR_JERK"},
	"asnp": {unitValue, "ANGULAR_SNAP"},
	"alti": {unitValue, "ALTITUDE_ABOVE_SEA"},
	"long": {unitValue, "LONGITUDE"},
	"lati": {unitValue, "LATITUDE"},
	"hdop": {number, "HDOP"},
	"spd-": {unitValue, "SPEED_ABOVE_GROUND"},
	"vmg-": {unitValue, "VELOCITY_MADE_GOOD"},
	"dist": {unitValue, "DISTANCE"},
	"cour": {unitValue, "COURSE"},
	"head": {unitValue, "HEADING"},
	"skwt": {unitValue, "SKEW_TEMPERATURE"},
	"eamf": {unitValue, "EARTH_MAGNETIC_FIELD"},
	"sazi": {unitValue, "SUN_AZIMUTH"},
	"salt": {unitValue, "SUN_ALTITUDE"},
	"qalt": {unitValue, "QUANTISED_ALTITUDE_ABOVE_SEA"},
	"qlon": {unitValue, "QUANTISED_LONGITUDE"},
	"qlat": {unitValue, "QUANTISED_LATITUDE"},
	"qsaz": {unitValue, "QUANTISED_SUN_AZIMUTH"},
	"qsal": {unitValue, "QUANTISED_SUN_ALTITUDE"},
}
