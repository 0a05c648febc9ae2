//go:build tinygo

package main

import "machine"

const (
	DEVICE_ID = "restroom-1"

	// Timing
	POLL_INTERVAL_MS   = 1000  // Sensor poll and frame output period
	SCREEN_INTERVAL_MS = 10000 // Running screen refresh period
	REPORT_INTERVAL_MS = 60000 // Text report on the console

	// ADC configuration. The ESP32 ADC is read as 16 bits and shifted down.
	ADC_REFERENCE_MV = 3300
	ADC_RESOLUTION   = 12
	ADC_SHIFT        = 16 - ADC_RESOLUTION

	// Gas sensor divider and indicator LED
	PIN_GAS = machine.GPIO35
	PIN_LED = machine.GPIO2

	// Soap dispensers (HC-SR04 trigger/echo pairs)
	PIN_SOAP1_TRIG = machine.GPIO12
	PIN_SOAP1_ECHO = machine.GPIO14
	PIN_SOAP2_TRIG = machine.GPIO16
	PIN_SOAP2_ECHO = machine.GPIO17
	PIN_SOAP3_TRIG = machine.GPIO27
	PIN_SOAP3_ECHO = machine.GPIO33

	// Tissue holders (HIGH = paper present) and floor water sensor (LOW = wet)
	PIN_TISSUE1 = machine.GPIO18
	PIN_TISSUE2 = machine.GPIO5
	PIN_WATER   = machine.GPIO13

	// SSD1306 OLED
	PIN_OLED_SDA = machine.GPIO26
	PIN_OLED_SCL = machine.GPIO25
	OLED_ADDRESS = 0x3C

	// Serial link: "$micros,adc,s1,s2,s3,tt,w\n" is under 48 bytes once per
	// second, far below 115200 baud.
	UART_BAUD_RATE = 115200
)
