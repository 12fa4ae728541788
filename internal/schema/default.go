package schema

// DefaultYAML is the schema written by `pforge config init` and used when no
// schema.yaml exists. It is intentionally small; real preset tables live in the
// user's schema file.
const DefaultYAML = `# PromptForge field schema
# Each field has a key, a label, a type (text|select|textarea|number|custom)
# and a category. Select fields list options with optional weights and tags.
version: 1
fields:
  - key: subject
    label: Subject
    type: textarea
    category: subject
  - key: characters
    label: Characters
    type: custom
    category: character
  - key: character_age
    label: Character age
    type: select
    category: character
    options:
      - value: child
      - value: young adult
        weight: 3
      - value: middle-aged
        weight: 2
      - value: elderly
  - key: character_wardrobe
    label: Wardrobe
    type: select
    category: character
    options:
      - value: streetwear
        tags: [urban, modern]
      - value: business suit
        tags: [urban, modern]
      - value: medieval armor
        tags: [fantasy, historic]
      - value: flowing robes
        tags: [fantasy]
  - key: setting
    label: Setting
    type: select
    category: scene
    options:
      - value: neon-lit city street
        weight: 2
        tags: [urban, modern]
      - value: misty forest
        tags: [fantasy, nature]
      - value: castle courtyard
        tags: [fantasy, historic]
      - value: open desert
        tags: [nature]
  - key: time_of_day
    label: Time of day
    type: select
    category: scene
    options:
      - value: golden hour
        weight: 2
      - value: midday
      - value: blue hour
      - value: night
        tags: [urban]
  - key: weather
    label: Weather
    type: text
    category: scene
  - key: art_style
    label: Art style
    type: select
    category: style
    options:
      - value: photorealistic
        weight: 3
        tags: [modern]
      - value: watercolor
        tags: [fantasy]
      - value: anime
      - value: oil painting
        tags: [historic]
  - key: color_palette
    label: Color palette
    type: text
    category: style
  - key: camera_shot
    label: Camera shot
    type: select
    category: camera
    options:
      - value: wide shot
      - value: medium shot
        weight: 2
      - value: close-up
      - value: aerial
  - key: camera_movement
    label: Camera movement
    type: select
    category: camera
    options:
      - value: static
        weight: 2
      - value: slow dolly in
      - value: handheld
      - value: orbit
  - key: duration_seconds
    label: Duration (seconds)
    type: number
    category: camera
  - key: action
    label: Action
    type: textarea
    category: action
  - key: music
    label: Music
    type: select
    category: audio
    options:
      - value: ambient pads
      - value: orchestral swell
        tags: [fantasy, historic]
      - value: synthwave
        tags: [urban, modern]
      - value: none
  - key: sound_effects
    label: Sound effects
    type: text
    category: audio
  - key: negative_prompt
    label: Negative prompt
    type: textarea
    category: settings
  - key: aspect_ratio
    label: Aspect ratio
    type: select
    category: settings
    options:
      - value: "16:9"
        weight: 3
      - value: "9:16"
      - value: "1:1"
`
