// Package menu implements a navigable menu as an ordinary task.
//
// A Menu has a title and a list of items; selecting an item switches the run
// to the task it names, and "up" switches back to the parent menu. Input and
// output go through a Frontend, so the same menu can be driven by a keyboard,
// a gamepad resource, or a scripted test.
//
// Menus can be loaded from YAML or HCL files. Items may nest a whole menu
// inline; Flatten (and Register) expand those into standalone menus with
// generated names of the form "menu_task_<id>".
package menu
