// Command kiosk runs the attendance kiosk headless: frames come from an image
// file or directory, speech and tones go to the log.
package main

func main() {
	Execute()
}
