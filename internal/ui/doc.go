// Package ui contains the Fyne desktop interface: Downloader, Converter and
// Instagram tabs that submit jobs to the runner and render their events,
// plus the settings dialog. All strings go through Localization.
package ui
