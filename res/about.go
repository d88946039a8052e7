package res

// AboutContent is the Markdown shown in the About dialog.
const AboutContent = `Draws live audio as a spectrum, waveform, bars or a ring.

**Controls:**
- Click the picture for the next visualization, right click for the next colors
- Space plays and pauses, F11 toggles fullscreen
- Drop a file or folder on the window to play it

**Formats:** MP3, WAV, FLAC and Ogg Vorbis
`
