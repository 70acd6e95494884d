// Package browser implements the scanner capabilities on top of headless
// Chrome using chromedp.
//
// Each scan page is opened in its own browser context, the DevTools
// equivalent of an incognito window. Navigation waits on Page.lifecycleEvent
// notifications of the main frame, which is how "networkIdle" and
// "DOMContentLoaded" are observed.
package browser
