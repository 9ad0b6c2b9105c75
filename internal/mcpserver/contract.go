package mcpserver

// ObjectModelContract describes the sensemap object model that LLM
// consumers should follow when creating cards and boxes.
const ObjectModelContract = `# Sensemap Object Model

A **map** is a canvas. Everything on it is an **object**.

## Objects

Every object has an ` + "`" + `objectType` + "`" + `:

- ` + "`" + `CARD` + "`" + ` - a card with ` + "`" + `cardType` + "`" + ` NORMAL, NOTE, QUESTION or ANSWER.
  ` + "`" + `question` + "`" + ` is only allowed on QUESTION cards and ` + "`" + `answer` + "`" + ` only on ANSWER cards.
- ` + "`" + `BOX` + "`" + ` - shows a box on the map. Its ` + "`" + `data` + "`" + ` field holds the box id.
  A box is shown by at most one object.

Positions (` + "`" + `x` + "`" + `, ` + "`" + `y` + "`" + `) are free floats. ` + "`" + `width` + "`" + ` and ` + "`" + `height` + "`" + ` are never negative.

## Boxes

A box has a ` + "`" + `boxType` + "`" + ` (INFO or NOTICE), a title, a summary and tags.
Its ` + "`" + `contains` + "`" + ` list is derived: it is the objects whose ` + "`" + `belongsTo` + "`" + ` is the box,
in the order they were added.

## Containment rules

1. An object belongs to at most one box. Use ` + "`" + `add_to_box` + "`" + `; adding to another box moves it.
2. ` + "`" + `remove_from_box` + "`" + ` is a no-op when the object is not in that box.
3. Object and box must be on the same map.
4. A box can never end up inside itself, directly or through other boxes.
5. Deleting a box returns its contents to the top level of the map.

## Scopes

- Whole map: objects that belong to no box.
- Box: the box's contents in insertion order. A missing box shows nothing.

## Tags

Tags are lowercase, trimmed and deduplicated. Tools accept them comma-separated:
` + "`" + `research, open-question` + "`" + `.

## Images

Upload map images via ` + "`" + `upload_map_image` + "`" + `. Images are stored under a generated name
and served from ` + "`" + `/images/<name>` + "`" + `. Supported formats: png, jpg, gif, webp, svg.
`
